package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/controller"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/fieldtype"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/logging"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/clock"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/fieldrepo"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/idempotency"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/membertypes"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/ports/out/profiledata"
)

// Server dispatches profile host events received over HTTP to the member
// type field and its controller.
type Server struct {
	Field      *fieldtype.MemberTypeField
	Controller *controller.Controller

	// Types is the field type collection the host assembled at startup.
	Types map[domain.FieldType]fieldtype.Descriptor

	Fields   fieldrepo.Repository
	Data     profiledata.Repository
	Assigner membertypes.Assigner
	Idem     idempotency.Store
	Clock    clock.Clock
	Log      *slog.Logger
}

type ServerDeps struct {
	Field      *fieldtype.MemberTypeField
	Controller *controller.Controller
	Types      map[domain.FieldType]fieldtype.Descriptor
	Fields     fieldrepo.Repository
	Data       profiledata.Repository
	Assigner   membertypes.Assigner
	Idem       idempotency.Store
	Clock      clock.Clock
	Logger     *slog.Logger
}

func NewServer(d ServerDeps) *Server {
	l := d.Logger
	if l == nil {
		l = logging.L()
	}
	return &Server{
		Field:      d.Field,
		Controller: d.Controller,
		Types:      d.Types,
		Fields:     d.Fields,
		Data:       d.Data,
		Assigner:   d.Assigner,
		Idem:       d.Idem,
		Clock:      d.Clock,
		Log:        l.With("component", "httpapi"),
	}
}

func (s *Server) ListFieldTypes(w http.ResponseWriter, r *http.Request) {
	keys := make([]string, 0, len(s.Types))
	for t := range s.Types {
		keys = append(keys, string(t))
	}
	sort.Strings(keys)
	out := ListFieldTypesResponse{FieldTypes: make([]FieldType, 0, len(keys))}
	for _, k := range keys {
		d := s.Types[domain.FieldType(k)]
		if d == nil {
			continue
		}
		out.FieldTypes = append(out.FieldTypes, fieldTypeFromDescriptor(domain.FieldType(k), d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) ListMemberTypes(w http.ResponseWriter, r *http.Request) {
	opts, err := s.Field.MemberTypes(r.Context())
	if err != nil {
		s.internal(w, r, "list member types", err)
		return
	}
	out := ListMemberTypesResponse{MemberTypes: make([]MemberTypeOption, 0, len(opts))}
	for _, o := range opts {
		out.MemberTypes = append(out.MemberTypes, MemberTypeOption{Name: string(o.Name), Label: o.Label})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) CreateField(w http.ResponseWriter, r *http.Request) {
	var req CreateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	details := map[string]any{}
	name := domain.NormalizeHumanName(req.Name)
	if name == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(req.Type) == "" {
		details["type"] = "required"
	}
	if len(details) > 0 {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid field", details)
		return
	}
	f, err := s.Fields.Create(r.Context(), domain.Field{
		GroupID:     domain.GroupID(req.GroupId),
		Type:        domain.FieldType(strings.TrimSpace(req.Type)),
		Name:        name,
		Description: req.Description,
		IsRequired:  req.IsRequired,
		CanDelete:   true,
	})
	if err != nil {
		s.internal(w, r, "create field", err)
		return
	}
	writeJSON(w, http.StatusCreated, fieldFromDomain(f))
}

func (s *Server) EditField(w http.ResponseWriter, r *http.Request) {
	field, d, ok := s.fieldWithDescriptor(w, r)
	if !ok {
		return
	}
	s.renderEdit(w, r, http.StatusOK, d, field, fieldtype.EditProps{})
}

func (s *Server) EditUserField(w http.ResponseWriter, r *http.Request) {
	user, ok := bindPathInt64(w, r, "userId")
	if !ok {
		return
	}
	field, d, ok := s.fieldWithDescriptor(w, r)
	if !ok {
		return
	}
	s.renderEdit(w, r, http.StatusOK, d, field, fieldtype.EditProps{UserID: domain.UserID(user)})
}

func (s *Server) AdminField(w http.ResponseWriter, r *http.Request) {
	field, d, ok := s.fieldWithDescriptor(w, r)
	if !ok {
		return
	}
	html, err := d.AdminFieldHTML(r.Context(), field, fieldtype.AdminProps{})
	if err != nil {
		s.internal(w, r, "render admin field", err)
		return
	}
	writeHTML(w, http.StatusOK, html)
}

// SaveFieldValue validates and stores a submitted profile value, then lets
// the controller synchronize the user's member type.
//
// An Idempotency-Key header makes retries replay the first response; reusing
// a key with a different submission is a 409.
func (s *Server) SaveFieldValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := bindPathInt64(w, r, "userId")
	if !ok {
		return
	}
	field, d, ok := s.fieldWithDescriptor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed form body", nil)
		return
	}

	values := submittedValues(r.PostForm, field.ID)
	if errs := validateValues(r, d, field, values); len(errs) > 0 {
		s.renderEdit(w, r, http.StatusUnprocessableEntity, d, field, fieldtype.EditProps{
			UserID:     domain.UserID(user),
			Submission: r.PostForm,
			Errors:     errs,
		})
		return
	}
	// Store what Sync assigns so the next render selects the same option.
	for i, v := range values {
		values[i] = string(domain.NormalizeMemberTypeName(v))
	}
	value := domain.EncodeStoredValue(values)

	// Idempotency handling:
	// - Replay if same user+key+route+bodyHash
	// - Reject if same user+key+route with different bodyHash (409)
	idemKey := idempotency.Key(strings.TrimSpace(r.Header.Get("Idempotency-Key")))
	bodyHash := hashValue(value)
	metaFP := idempotency.Fingerprint{
		Key:    idemKey,
		User:   domain.UserID(user),
		Method: http.MethodPost,
		Route:  r.URL.Path,
	}
	respFP := metaFP
	respFP.BodyHash = bodyHash
	if s.Idem != nil && idemKey != "" {
		if meta, ok, err := s.Idem.Get(ctx, metaFP); err != nil {
			s.internal(w, r, "read idempotency record", err)
			return
		} else if ok {
			if string(meta.Body) != bodyHash {
				writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
				return
			}
		} else {
			_ = s.Idem.Put(ctx, metaFP, idempotency.Record{
				StatusCode:  0,
				ContentType: "text/plain",
				Body:        []byte(bodyHash),
				CreatedAt:   s.Clock.Now(),
			})
		}

		if rec, ok, err := s.Idem.Get(ctx, respFP); err != nil {
			s.internal(w, r, "read idempotency record", err)
			return
		} else if ok && rec.StatusCode == http.StatusOK && strings.HasPrefix(rec.ContentType, "application/json") {
			w.Header().Set("Content-Type", rec.ContentType)
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			return
		}
	}

	rec := profiledata.Record{
		FieldID:     field.ID,
		UserID:      domain.UserID(user),
		Value:       value,
		LastUpdated: s.Clock.Now(),
	}
	if err := s.Data.Put(ctx, rec); err != nil {
		s.internal(w, r, "store field value", err)
		return
	}
	outcome, err := s.Controller.Sync(ctx, rec)
	if err != nil {
		s.internal(w, r, "synchronize member type", err)
		return
	}
	name, has, err := s.Assigner.GetMemberType(ctx, rec.UserID)
	if err != nil {
		s.internal(w, r, "read member type", err)
		return
	}

	resp := SaveFieldValueResponse{
		FieldId:    int64(field.ID),
		UserId:     user,
		Value:      value,
		Sync:       string(outcome),
		MemberType: nullableMemberType(name, has),
	}

	// Store successful response for replay.
	if s.Idem != nil && idemKey != "" {
		if b, err := json.Marshal(resp); err == nil {
			_ = s.Idem.Put(ctx, respFP, idempotency.Record{
				StatusCode:  http.StatusOK,
				ContentType: "application/json",
				Body:        append(b, '\n'),
				CreatedAt:   s.Clock.Now(),
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetFieldValue reads a profile value through the controller's read filters.
// ?path=data selects the low-level field data path.
func (s *Server) GetFieldValue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := bindPathInt64(w, r, "userId")
	if !ok {
		return
	}
	field, ok := s.field(w, r)
	if !ok {
		return
	}
	raw, _, err := s.Data.Get(ctx, field.ID, domain.UserID(user))
	if err != nil {
		s.internal(w, r, "read field value", err)
		return
	}
	var value string
	switch r.URL.Query().Get("path") {
	case "", "value":
		value = s.Controller.FieldValue(ctx, raw, field.Type, field.ID, domain.UserID(user))
	case "data":
		value = s.Controller.FieldData(ctx, raw, field.ID, domain.UserID(user))
	default:
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "path must be value or data", nil)
		return
	}
	writeJSON(w, http.StatusOK, FieldValueResponse{FieldId: int64(field.ID), UserId: user, Value: value})
}

func (s *Server) ListFieldChildren(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	field, ok := s.field(w, r)
	if !ok {
		return
	}
	forEditing := false
	if raw := r.URL.Query().Get("for_editing"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "for_editing must be a boolean", nil)
			return
		}
		forEditing = v
	}
	native, err := s.Fields.ListChildren(ctx, field.ID)
	if err != nil {
		s.internal(w, r, "list field children", err)
		return
	}
	children := make([]domain.ChildOption, 0, len(native))
	for _, c := range native {
		children = append(children, childOptionFromField(c))
	}
	children, err = s.Controller.FieldChildren(ctx, children, forEditing, field)
	if err != nil {
		s.internal(w, r, "enumerate field children", err)
		return
	}
	out := ListChildrenResponse{Children: make([]ChildOption, 0, len(children))}
	for _, c := range children {
		out.Children = append(out.Children, childOptionFromDomain(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetFieldMeta(w http.ResponseWriter, r *http.Request) {
	field, ok := s.field(w, r)
	if !ok {
		return
	}
	meta, err := s.Fields.GetMeta(r.Context(), field.ID)
	if err != nil {
		s.internal(w, r, "read field meta", err)
		return
	}
	writeJSON(w, http.StatusOK, fieldMetaFromDomain(meta))
}

func (s *Server) SaveFieldMeta(w http.ResponseWriter, r *http.Request) {
	field, ok := s.field(w, r)
	if !ok {
		return
	}
	var req FieldMeta
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	saved, err := s.Controller.SavedFieldMeta(r.Context(), field, fieldMetaToDomain(req))
	if err != nil {
		if ae := (*controller.Error)(nil); errors.As(err, &ae) {
			writeAppError(w, r, err)
			return
		}
		s.internal(w, r, "save field meta", err)
		return
	}
	writeJSON(w, http.StatusOK, fieldMetaFromDomain(saved))
}

func (s *Server) GetSearchFieldType(w http.ResponseWriter, r *http.Request) {
	field, ok := s.field(w, r)
	if !ok {
		return
	}
	hook := controller.SearchHook(r.URL.Query().Get("hook"))
	switch hook {
	case controller.SearchValidationType, controller.SearchHTMLType, controller.SearchCriteriaType, controller.SearchQueryType:
	default:
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "hook must be one of validation, html, criteria, query", nil)
		return
	}
	t := s.Controller.SearchFieldType(hook, field.Type, field)
	writeJSON(w, http.StatusOK, SearchTypeResponse{Hook: string(hook), Type: string(t)})
}

func (s *Server) GetMemberType(w http.ResponseWriter, r *http.Request) {
	user, ok := bindPathInt64(w, r, "userId")
	if !ok {
		return
	}
	name, has, err := s.Assigner.GetMemberType(r.Context(), domain.UserID(user))
	if err != nil {
		s.internal(w, r, "read member type", err)
		return
	}
	writeJSON(w, http.StatusOK, MemberTypeResponse{UserId: user, MemberType: nullableMemberType(name, has)})
}

func (s *Server) field(w http.ResponseWriter, r *http.Request) (domain.Field, bool) {
	id, ok := bindPathInt64(w, r, "fieldId")
	if !ok {
		return domain.Field{}, false
	}
	f, err := s.Fields.GetByID(r.Context(), domain.FieldID(id))
	if err != nil {
		if errors.Is(err, fieldrepo.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "NOT_FOUND", "field not found", nil)
			return domain.Field{}, false
		}
		s.internal(w, r, "look up field", err)
		return domain.Field{}, false
	}
	return f, true
}

// fieldWithDescriptor resolves the field and the descriptor that renders it.
func (s *Server) fieldWithDescriptor(w http.ResponseWriter, r *http.Request) (domain.Field, fieldtype.Descriptor, bool) {
	f, ok := s.field(w, r)
	if !ok {
		return domain.Field{}, nil, false
	}
	d := s.Types[f.Type]
	if d == nil && f.Type == s.Field.Kind() {
		d = s.Field
	}
	if d == nil {
		writeError(w, r, http.StatusConflict, "UNSUPPORTED_FIELD_TYPE", fmt.Sprintf("no field type registered for %q", f.Type), nil)
		return domain.Field{}, nil, false
	}
	return f, d, true
}

func (s *Server) renderEdit(w http.ResponseWriter, r *http.Request, status int, d fieldtype.Descriptor, field domain.Field, props fieldtype.EditProps) {
	html, err := d.EditFieldHTML(r.Context(), field, props)
	if err != nil {
		s.internal(w, r, "render edit field", err)
		return
	}
	writeHTML(w, status, html)
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.Log.ErrorContext(r.Context(), op, "method", r.Method, "path", r.URL.Path, "error", err)
	writeAppError(w, r, err)
}

func writeHTML(w http.ResponseWriter, status int, html template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

// submittedValues returns the sanitized, non-empty values submitted for the
// field under "field_<id>" or "field_<id>[]". Everything else, "none"
// included, is left to the descriptor's IsValid.
func submittedValues(form url.Values, id domain.FieldID) []string {
	name := id.InputName()
	raw := append(append([]string(nil), form[name]...), form[name+"[]"]...)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = domain.SanitizeTextField(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// validateValues checks a submission against a single-select field.
func validateValues(r *http.Request, d fieldtype.Descriptor, field domain.Field, values []string) []string {
	switch {
	case len(values) == 0:
		if field.IsRequired {
			return []string{field.Name + " is required and not allowed to be empty."}
		}
		return nil
	case len(values) > 1:
		return []string{field.Name + " accepts a single member type."}
	}
	var errs []string
	for _, v := range values {
		if !d.IsValid(r.Context(), v) {
			errs = append(errs, fmt.Sprintf("%q is not a valid value for %s.", v, field.Name))
		}
	}
	return errs
}

func hashValue(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
