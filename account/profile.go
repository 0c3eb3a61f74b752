package account

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"

	"github.com/kbukum/sessionkit/errors"
	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/session"
)

// Section is an editable part of an escort profile.
type Section string

const (
	SectionInfo          Section = "info"
	SectionAppearance    Section = "appearance"
	SectionAvailability  Section = "availability"
	SectionMedia         Section = "media"
	SectionServicesInfo  Section = "services-info"
	SectionContactMethod Section = "contact-method"
	SectionLocation      Section = "location"
)

// profileKeys maps a section to the profile field it edits. Sections
// without a key merge at the top level.
var profileKeys = map[Section]string{
	SectionInfo:         "basicInfo",
	SectionAppearance:   "appearance",
	SectionAvailability: "availability",
	SectionServicesInfo: "servicesInfo",
	SectionLocation:     "location",
}

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	switch s {
	case SectionInfo, SectionAppearance, SectionAvailability, SectionMedia,
		SectionServicesInfo, SectionContactMethod, SectionLocation:
		return true
	}
	return false
}

// UpdateSection patches one profile section and, on success, merges the
// patch into the stored profile. The backend reply is returned as is; the
// media section replies with the stored file names.
func (m *Manager) UpdateSection(ctx context.Context, section Section, patch any) (map[string]any, error) {
	if m.Kind() != session.KindEscort {
		return nil, errors.Validation("profile sections exist only for escort accounts")
	}
	if !section.Valid() {
		return nil, errors.Validation(fmt.Sprintf("unknown profile section %q", section))
	}
	if !m.session.IsAuthenticated() {
		return nil, errors.NotAuthenticated()
	}

	var out map[string]any
	if err := m.api.Patch(ctx, "/"+string(section), patch, &out); err != nil {
		return nil, err
	}

	fields, err := toMap(patch)
	if err != nil {
		m.log.Warn("patch applied remotely but could not be merged locally", logger.Fields(
			"section", string(section), logger.FieldError, err.Error()))
		return out, nil
	}
	m.mergeProfile(ctx, section, fields)
	return out, nil
}

func (m *Manager) mergeProfile(ctx context.Context, section Section, fields map[string]any) {
	key, nested := profileKeys[section]
	if !nested {
		m.session.UpdateProfile(ctx, fields)
		return
	}
	u := m.session.User()
	if u == nil {
		return
	}
	current, _ := u.Profile[key].(map[string]any)
	merged := maps.Clone(current)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	m.session.UpdateProfile(ctx, map[string]any{key: merged})

	if name, ok := fields["displayName"].(string); ok && section == SectionInfo && name != "" {
		m.session.UpdateUser(ctx, session.UserPatch{DisplayName: &name})
	}
}

// DeleteFile removes an uploaded media file.
func (m *Manager) DeleteFile(ctx context.Context, name string) error {
	if name == "" {
		return errors.Validation("file name is required")
	}
	return m.api.Delete(ctx, "/file/"+url.PathEscape(name), nil)
}

// DeleteContactMethod removes the contact method of the given type.
func (m *Manager) DeleteContactMethod(ctx context.Context, contactType string) error {
	if contactType == "" {
		return errors.Validation("contact method type is required")
	}
	return m.api.Delete(ctx, "/contact-method/"+url.PathEscape(contactType), nil)
}

func toMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
