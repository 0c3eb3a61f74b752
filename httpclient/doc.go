// Package httpclient is the HTTP transport under the sessionkit API
// clients.
//
// The client resolves paths against a base URL, JSON-encodes bodies and
// keeps session cookies in a jar shared by every client built from the same
// jar, so the escort and member APIs see the same credentials the browser
// would send. Transport failures and non-2xx responses are returned as
// *errors.AppError, with the message taken from the response body when the
// backend provides one.
//
//	jar, _ := httpclient.NewJar()
//	c, err := httpclient.New(httpclient.Config{BaseURL: "https://api.example.com/escort"}, httpclient.WithJar(jar))
//	resp, err := c.Do(ctx, httpclient.Request{Method: http.MethodPost, Path: "/login", Body: creds})
package httpclient
