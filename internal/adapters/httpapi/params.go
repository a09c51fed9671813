package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// bindPathInt64 binds a required integer path parameter, writing a 400 on failure.
func bindPathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	var v int64
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || v <= 0 {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid path parameter "+name, map[string]any{"parameter": name})
		return 0, false
	}
	return v, true
}
