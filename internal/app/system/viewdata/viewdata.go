// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
	"github.com/suashub/suashub/internal/app/system/auth"
	"github.com/suashub/suashub/internal/domain/models"
)

// SiteName is shown in the header and page titles.
const SiteName = "SUASHub"

// CSRFFieldName is the form field gorilla/csrf reads the token from.
const CSRFFieldName = "gorilla.csrf.Token"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn    bool
	Role          string
	UserName      string
	IsCoordenador bool // may move the current-stage pointer

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string
	CSRFField string // csrf.FieldName, for hidden inputs
}

// NewBaseVM creates a fully populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    SiteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
		CSRFField:   CSRFFieldName,
	}
	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.Role = u.Role
		vm.UserName = u.Name
		vm.IsCoordenador = CanAdvance(u.Role)
	}
	return vm
}

// CanAdvance reports whether role may move a case's current stage.
func CanAdvance(role string) bool {
	return role == models.RoleCoordenador || role == models.RoleAdmin
}

// CSRF returns the field name and token for fragments rendered without a
// BaseVM.
func CSRF(r *http.Request) (field, token string) {
	return CSRFFieldName, csrf.Token(r)
}
