package analytics

// Event names.
const (
	EventPageOpen                = "pageOpen"
	EventFaceSwap                = "faceSwap"
	EventFaceSwapResult          = "faceSwapResult"
	EventEscortContact           = "escortContact"
	EventEscortGallery           = "escortGallery"
	EventEscortCatlist           = "escortCatlist"
	EventEscortShare             = "escortShare"
	EventEscortAudio             = "escortAudio"
	EventEscortSearch            = "escortSearch"
	EventEscortSearchResultClick = "escortSearchResultClick"
	EventEscortDetailView        = "escortDetailView"
	EventCatlistAction           = "catlistAction"
	EventMotelPreviewsView       = "motelPreviewsView"
	EventMotelPreviewClick       = "motelPreviewClick"
	EventMotelDetailView         = "motelDetailView"
	EventMotelContact            = "motelContact"
	EventMotelMapView            = "motelMapView"
	EventMotelImageGallery       = "motelImageGallery"
	EventMotelReviewsView        = "motelReviewsView"
	EventMotelReviewSubmit       = "motelReviewSubmit"
	EventFooterContactClick      = "footerContactClick"
	EventFooterTelegramClick     = "footerTelegramClick"
	EventUserLogin               = "userLogin"
	EventUserRegister            = "userRegister"
	EventUserForgotPassword      = "userForgotPassword"
	EventUserResetPassword       = "userResetPassword"
)

// Registration wizard steps.
const (
	StepPersonalInfo       = "personal_info"
	StepPhysicalAttributes = "physical_attributes"
	StepServicesInfo       = "services_info"
	StepAvailability       = "availability"
	StepDescription        = "description"
	StepLocation           = "location"
	StepMediaUpload        = "media_upload"
	StepSubmit             = "submit"
)

// RegisterStep names the event for a wizard step, or for one field of it
// when field is set: RegisterStep(StepPersonalInfo, "email") is
// "register_step_personal_info_email".
func RegisterStep(step, field string) string {
	name := "register_step_" + step
	if field != "" {
		name += "_" + field
	}
	return name
}

// PreRegister names the event for a pre-registration channel such as
// "phone" or "email".
func PreRegister(channel string) string {
	return "pre_register_" + channel
}
