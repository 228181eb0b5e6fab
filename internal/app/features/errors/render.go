// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/suashub/suashub/internal/app/system/viewdata"
)

// RenderUnauthorized shows a friendly “sign in required” page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	vm := viewdata.NewBaseVM(r, "Acesso restrito", backURL)
	vm.BackURL = backURL
	templates.Render(w, r, "error_page", pageData{
		BaseVM:  vm,
		Message: "Entre com seu usuário para continuar.",
	})
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	vm := viewdata.NewBaseVM(r, "Acesso negado", "/")
	if backURL != "" {
		vm.BackURL = backURL
	}
	templates.Render(w, r, "error_page", pageData{BaseVM: vm, Message: msg})
}

// renderStatus writes status and the generic error page. HTMX requests get
// only the message snippet so it can be swapped into the page.
func renderStatus(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	w.WriteHeader(status)
	if r.Header.Get("HX-Request") == "true" {
		templates.RenderSnippet(w, "error_inline", pageData{Message: msg})
		return
	}
	vm := viewdata.NewBaseVM(r, title, "/")
	if backURL != "" {
		vm.BackURL = backURL
	}
	templates.Render(w, r, "error_page", pageData{BaseVM: vm, Message: msg})
}
