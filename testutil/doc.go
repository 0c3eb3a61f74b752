// Package testutil provides test doubles shared by the package tests: a
// scripted fake backend server and a manually advanced clock.
//
//	func TestLogin(t *testing.T) {
//	    be := testutil.NewBackend()
//	    testutil.T(t).Setup(be)
//	    be.On(http.MethodPost, "/escort/login", testutil.JSON(200, map[string]any{"id": "e1"}))
//	    // point the client at be.URL()
//	}
package testutil
