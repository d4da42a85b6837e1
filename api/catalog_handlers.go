package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"vigil/core"
	"vigil/rbac"
)

// Response statuses.
const (
	statusOK    = "OK"
	statusError = "ERROR"
)

// Parameter error messages, pinned by the API contract.
const (
	msgMissingName      = "Missing /name parameter"
	msgMissingFormatGet = "Missing or invalid /format parameter"
	msgMissingType      = "Missing /type parameter or is invalid"
	msgMissingFormatPut = "Missing /format parameter or is invalid"
	msgMissingContent   = "Missing /content parameter"
	msgMissingRole      = "Missing /role parameter"
	msgPermissionDenied = "Permission denied"
)

// resourceRequest is the body of write operations.
type resourceRequest struct {
	Format  string `json:"format"`
	Content string `json:"content"`
	Role    string `json:"role"`
}

// resourceResponse is the uniform envelope of every catalog operation.
type resourceResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Content string `json:"content,omitempty"`
}

// respondJSON writes a JSON response with proper error handling.
func (a *API) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Response already started; log for monitoring.
		a.logger.Errorw("Failed to encode JSON response", "error", err)
	}
}

// respondError reports an operation failure. The envelope always travels
// with HTTP 200: the protocol outcome lives in the status field.
func (a *API) respondError(w http.ResponseWriter, msg string) {
	a.respondJSON(w, resourceResponse{Status: statusError, Error: msg}, http.StatusOK)
}

func (a *API) respondOK(w http.ResponseWriter) {
	a.respondJSON(w, resourceResponse{Status: statusOK}, http.StatusOK)
}

// decodeRequest parses the JSON body of a write operation.
func (a *API) decodeRequest(w http.ResponseWriter, r *http.Request) (resourceRequest, bool) {
	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, "Invalid request body: "+err.Error())
		return resourceRequest{}, false
	}
	return req, true
}

// getResource handles GET /catalog/resource/{name}.
func (a *API) getResource(w http.ResponseWriter, r *http.Request) {
	nameStr := mux.Vars(r)["name"]
	formatStr := r.URL.Query().Get("format")
	role := r.URL.Query().Get("role")

	switch {
	case nameStr == "":
		a.respondError(w, msgMissingName)
		return
	case formatStr == "":
		a.respondError(w, msgMissingFormatGet)
		return
	case role == "":
		a.respondError(w, msgMissingRole)
		return
	}

	format, err := core.ParseFormat(formatStr)
	if err != nil {
		a.respondError(w, msgMissingFormatGet)
		return
	}
	name, err := core.NewName(nameStr)
	if err != nil {
		a.respondError(w, "Invalid /name parameter: "+err.Error())
		return
	}
	if !a.authz.Allowed(role, name, rbac.OpRead) {
		a.respondError(w, msgPermissionDenied)
		return
	}
	res, err := core.NewResource(name, format)
	if err != nil {
		a.respondError(w, err.Error())
		return
	}

	content, err := a.catalog.GetResource(res)
	if err != nil {
		a.respondError(w, err.Error())
		return
	}
	a.respondJSON(w, resourceResponse{Status: statusOK, Content: content}, http.StatusOK)
}

// postResource handles POST /catalog/resources/{type}: create a new item
// under a collection. The item name comes from the posted content.
func (a *API) postResource(w http.ResponseWriter, r *http.Request) {
	typeStr := mux.Vars(r)["type"]
	req, ok := a.decodeRequest(w, r)
	if !ok {
		return
	}

	if _, err := core.ParseType(typeStr); err != nil {
		a.respondError(w, msgMissingType)
		return
	}
	switch {
	case req.Format == "":
		a.respondError(w, msgMissingFormatPut)
		return
	case req.Content == "":
		a.respondError(w, msgMissingContent)
		return
	case req.Role == "":
		a.respondError(w, msgMissingRole)
		return
	}

	format, err := core.ParseFormat(req.Format)
	if err != nil {
		a.respondError(w, msgMissingFormatPut)
		return
	}
	name, err := core.NewName(typeStr)
	if err != nil {
		a.respondError(w, "Invalid /name parameter: "+err.Error())
		return
	}
	if !a.authz.Allowed(req.Role, name, rbac.OpWrite) {
		a.respondError(w, msgPermissionDenied)
		return
	}
	res, err := core.NewResource(name, format)
	if err != nil {
		a.respondError(w, err.Error())
		return
	}

	if err := a.catalog.PostResource(res, req.Content); err != nil {
		a.respondError(w, err.Error())
		return
	}
	a.respondOK(w)
}

// putResource handles PUT /catalog/resource/{name}: update an existing
// item in place.
func (a *API) putResource(w http.ResponseWriter, r *http.Request) {
	nameStr := mux.Vars(r)["name"]
	req, ok := a.decodeRequest(w, r)
	if !ok {
		return
	}

	switch {
	case nameStr == "":
		a.respondError(w, msgMissingName)
		return
	case req.Format == "":
		a.respondError(w, msgMissingFormatGet)
		return
	case req.Content == "":
		a.respondError(w, msgMissingContent)
		return
	case req.Role == "":
		a.respondError(w, msgMissingRole)
		return
	}

	format, err := core.ParseFormat(req.Format)
	if err != nil {
		a.respondError(w, msgMissingFormatGet)
		return
	}
	name, err := core.NewName(nameStr)
	if err != nil {
		a.respondError(w, "Invalid /name parameter: "+err.Error())
		return
	}
	if !a.authz.Allowed(req.Role, name, rbac.OpWrite) {
		a.respondError(w, msgPermissionDenied)
		return
	}
	res, err := core.NewResource(name, format)
	if err != nil {
		a.respondError(w, err.Error())
		return
	}

	if err := a.catalog.PutResource(res, req.Content); err != nil {
		a.respondError(w, err.Error())
		return
	}
	a.respondOK(w)
}

// deleteResource handles DELETE /catalog/resource/{name}: item or whole
// collection.
func (a *API) deleteResource(w http.ResponseWriter, r *http.Request) {
	nameStr := mux.Vars(r)["name"]
	role := r.URL.Query().Get("role")

	switch {
	case nameStr == "":
		a.respondError(w, msgMissingName)
		return
	case role == "":
		a.respondError(w, msgMissingRole)
		return
	}

	name, err := core.NewName(nameStr)
	if err != nil {
		a.respondError(w, "Invalid /name parameter: "+err.Error())
		return
	}
	if !a.authz.Allowed(role, name, rbac.OpWrite) {
		a.respondError(w, msgPermissionDenied)
		return
	}
	// Delete ignores serialization; the format never reaches the store.
	res, err := core.NewResource(name, core.FormatJSON)
	if err != nil {
		a.respondError(w, err.Error())
		return
	}

	if err := a.catalog.DeleteResource(res); err != nil {
		a.respondError(w, err.Error())
		return
	}
	a.respondOK(w)
}

// validateResource handles POST /catalog/resource/{name}/validate: run
// the write-path validation pipeline without persisting.
func (a *API) validateResource(w http.ResponseWriter, r *http.Request) {
	nameStr := mux.Vars(r)["name"]
	req, ok := a.decodeRequest(w, r)
	if !ok {
		return
	}

	switch {
	case nameStr == "":
		a.respondError(w, msgMissingName)
		return
	case req.Format == "":
		a.respondError(w, msgMissingFormatGet)
		return
	case req.Content == "":
		a.respondError(w, msgMissingContent)
		return
	case req.Role == "":
		a.respondError(w, msgMissingRole)
		return
	}

	format, err := core.ParseFormat(req.Format)
	if err != nil {
		a.respondError(w, msgMissingFormatGet)
		return
	}
	name, err := core.NewName(nameStr)
	if err != nil {
		a.respondError(w, "Invalid /name parameter: "+err.Error())
		return
	}
	if !a.authz.Allowed(req.Role, name, rbac.OpRead) {
		a.respondError(w, msgPermissionDenied)
		return
	}
	res, err := core.NewResource(name, format)
	if err != nil {
		a.respondError(w, err.Error())
		return
	}

	if err := a.catalog.ValidateResource(res, req.Content); err != nil {
		a.respondError(w, err.Error())
		return
	}
	a.respondOK(w)
}
