package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	memclock "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/memory/clock"
	memfieldrepo "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/memory/fieldrepo"
	memidempotency "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/memory/idempotency"
	memmembertypes "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/memory/membertypes"
	memprofiledata "github.com/Overland-East-Bay/xprofile-membertype-field/internal/adapters/memory/profiledata"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/controller"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/app/fieldtype"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/domain"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/logging"
	"github.com/Overland-East-Bay/xprofile-membertype-field/internal/platform/metrics"
)

type testHost struct {
	h      http.Handler
	types  *memmembertypes.Repo
	fields *memfieldrepo.Repo
	data   *memprofiledata.Repo
	clk    *memclock.ManualClock
}

func newTestHost(t *testing.T, host controller.HostCapabilities, types ...domain.MemberType) *testHost {
	t.Helper()
	ctx := context.Background()
	th := &testHost{
		types:  memmembertypes.NewRepo(),
		fields: memfieldrepo.NewRepo(),
		data:   memprofiledata.NewRepo(),
		clk:    memclock.NewManualClock(time.Unix(1700000000, 0).UTC()),
	}
	for _, mt := range types {
		if err := th.types.Register(ctx, mt); err != nil {
			t.Fatalf("register %s: %v", mt.Name, err)
		}
	}
	m := metrics.New()
	ft := fieldtype.New(fieldtype.Deps{
		Registry: th.types,
		Fields:   th.fields,
		Data:     th.data,
		Session:  NewSession(),
		Logger:   logging.Discard(),
		Metrics:  m,
	})
	ctrl := controller.New(controller.Deps{
		Field:    ft,
		Fields:   th.fields,
		Data:     th.data,
		Registry: th.types,
		Assigner: th.types,
		Host:     host,
		Logger:   logging.Discard(),
		Metrics:  m,
	})
	api := NewServer(ServerDeps{
		Field:      ft,
		Controller: ctrl,
		Types:      ctrl.RegisterFieldTypes(nil),
		Fields:     th.fields,
		Data:       th.data,
		Assigner:   th.types,
		Idem:       memidempotency.NewStore(),
		Clock:      th.clk,
		Logger:     logging.Discard(),
	})
	th.h = NewRouterWithOptions(api, RouterOptions{Metrics: m.Handler()})
	return th
}

func campus() []domain.MemberType {
	return []domain.MemberType{
		{Name: "alumni", Labels: domain.MemberTypeLabels{Name: "Alumni", SingularName: "Alumnus"}, Active: true},
		{Name: "staff", Labels: domain.MemberTypeLabels{Name: "Staff", SingularName: "Staff Member"}, Active: true},
	}
}

func (th *testHost) do(t *testing.T, method, path string, body io.Reader, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	th.h.ServeHTTP(rr, req)
	return rr
}

func (th *testHost) createField(t *testing.T, typ domain.FieldType, required bool) domain.FieldID {
	t.Helper()
	body, _ := json.Marshal(CreateFieldRequest{GroupId: 1, Type: string(typ), Name: "  Member   Type ", IsRequired: required})
	rr := th.do(t, http.MethodPost, "/fields", bytes.NewReader(body), nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create field status=%d body=%s", rr.Code, rr.Body.String())
	}
	var f Field
	if err := json.Unmarshal(rr.Body.Bytes(), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Name != "Member Type" {
		t.Fatalf("name=%q", f.Name)
	}
	return domain.FieldID(f.Id)
}

func form(id domain.FieldID, v string) io.Reader {
	vals := url.Values{}
	vals.Set(id.InputName(), v)
	return strings.NewReader(vals.Encode())
}

var formHeader = map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

func TestEndToEnd_RenderThenSave(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)

	rr := th.do(t, http.MethodGet, "/users/42/fields/"+id.String()+"/edit", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("edit status=%d body=%s", rr.Code, rr.Body.String())
	}
	html := rr.Body.String()
	for _, want := range []string{
		`<option value="" selected="selected">----</option>`,
		`<option value="alumni">Alumnus</option>`,
		`<option value="staff">Staff Member</option>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("edit html missing %s\n%s", want, html)
		}
	}

	rr = th.do(t, http.MethodPost, "/users/42/fields/"+id.String(), form(id, "alumni"), formHeader)
	if rr.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}
	var saved SaveFieldValueResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &saved); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if mt, err := saved.MemberType.Get(); err != nil || mt != "alumni" || saved.Sync != "assigned" {
		t.Fatalf("saved=%+v", saved)
	}

	rr = th.do(t, http.MethodGet, "/users/42/member-type", nil, nil)
	var got MemberTypeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if mt, err := got.MemberType.Get(); err != nil || mt != "alumni" {
		t.Fatalf("member type=%+v", got)
	}

	// The stored value is now pre-selected for the displayed user.
	rr = th.do(t, http.MethodGet, "/fields/"+id.String()+"/edit", nil, map[string]string{DisplayedUserHeader: "42"})
	if !strings.Contains(rr.Body.String(), `<option selected="selected" value="alumni">Alumnus</option>`) {
		t.Fatalf("edit html=%s", rr.Body.String())
	}
}

func TestSaveFieldValue_EmptyClearsAssignment(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)
	if err := th.types.SetMemberType(context.Background(), 5, "staff"); err != nil {
		t.Fatalf("SetMemberType: %v", err)
	}

	rr := th.do(t, http.MethodPost, "/users/5/fields/"+id.String(), form(id, ""), formHeader)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var saved SaveFieldValueResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &saved); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !saved.MemberType.IsNull() || saved.Sync != "cleared" {
		t.Fatalf("saved=%+v", saved)
	}
	if !strings.Contains(rr.Body.String(), `"memberType":null`) {
		t.Fatalf("body=%s", rr.Body.String())
	}
}

func TestSaveFieldValue_InvalidRerendersWithSubmission(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)
	if err := th.types.SetMemberType(context.Background(), 5, "staff"); err != nil {
		t.Fatalf("SetMemberType: %v", err)
	}

	rr := th.do(t, http.MethodPost, "/users/5/fields/"+id.String(), form(id, "bogus-type"), formHeader)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type=%q", ct)
	}
	if !strings.Contains(rr.Body.String(), `role="alert"`) {
		t.Fatalf("body=%s", rr.Body.String())
	}
	if name, _, _ := th.types.GetMemberType(context.Background(), 5); name != "staff" {
		t.Fatalf("member type=%q", name)
	}
	if _, found, _ := th.data.Get(context.Background(), id, 5); found {
		t.Fatalf("invalid value stored")
	}
}

func TestSaveFieldValue_RequiredField(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, true)

	rr := th.do(t, http.MethodPost, "/users/5/fields/"+id.String(), form(id, ""), formHeader)
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "is required") {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSaveFieldValue_StoresNormalizedName(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)

	rr := th.do(t, http.MethodPost, "/users/9/fields/"+id.String(), form(id, "Alumni"), formHeader)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	stored, found, err := th.data.Get(context.Background(), id, 9)
	if err != nil || !found || stored != "alumni" {
		t.Fatalf("stored=%q found=%v err=%v", stored, found, err)
	}
	if name, _, _ := th.types.GetMemberType(context.Background(), 9); name != "alumni" {
		t.Fatalf("member type=%q", name)
	}

	rr = th.do(t, http.MethodGet, "/users/9/fields/"+id.String()+"/edit", nil, nil)
	html := rr.Body.String()
	if !strings.Contains(html, `<option selected="selected" value="alumni">Alumnus</option>`) {
		t.Fatalf("alumni not pre-selected: %s", html)
	}
	if strings.Contains(html, `<option value="" selected="selected">`) {
		t.Fatalf("placeholder selected: %s", html)
	}
}

func TestSaveFieldValue_RejectsMultipleValues(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)

	vals := url.Values{}
	vals.Add(id.InputName()+"[]", "staff")
	vals.Add(id.InputName()+"[]", "alumni")
	rr := th.do(t, http.MethodPost, "/users/5/fields/"+id.String(), strings.NewReader(vals.Encode()), formHeader)
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "accepts a single member type") {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if _, found, _ := th.data.Get(context.Background(), id, 5); found {
		t.Fatalf("multi-value submission stored")
	}
	if _, has, _ := th.types.GetMemberType(context.Background(), 5); has {
		t.Fatalf("member type assigned from multi-value submission")
	}
}

func TestSaveFieldValue_NoneIsValidatedLikeAnyName(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)
	if err := th.types.SetMemberType(context.Background(), 5, "staff"); err != nil {
		t.Fatalf("SetMemberType: %v", err)
	}

	rr := th.do(t, http.MethodPost, "/users/5/fields/"+id.String(), form(id, "none"), formHeader)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if name, _, _ := th.types.GetMemberType(context.Background(), 5); name != "staff" {
		t.Fatalf("member type=%q", name)
	}

	// A member type actually named "none" can be saved.
	withNone := append(campus(), domain.MemberType{Name: "none", Labels: domain.MemberTypeLabels{Name: "None", SingularName: "Nobody"}, Active: true})
	th = newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, withNone...)
	id = th.createField(t, domain.FieldTypeMemberType, false)
	rr = th.do(t, http.MethodPost, "/users/5/fields/"+id.String(), form(id, "none"), formHeader)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if name, _, _ := th.types.GetMemberType(context.Background(), 5); name != "none" {
		t.Fatalf("member type=%q", name)
	}
}

func TestSaveFieldValue_Idempotency(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)
	path := "/users/5/fields/" + id.String()
	hdr := map[string]string{"Content-Type": "application/x-www-form-urlencoded", "Idempotency-Key": "k-1"}

	first := th.do(t, http.MethodPost, path, form(id, "alumni"), hdr)
	if first.Code != http.StatusOK {
		t.Fatalf("first status=%d body=%s", first.Code, first.Body.String())
	}

	// Someone else changes the member type; a replay must not re-assign it.
	if err := th.types.SetMemberType(context.Background(), 5, "staff"); err != nil {
		t.Fatalf("SetMemberType: %v", err)
	}
	replay := th.do(t, http.MethodPost, path, form(id, "alumni"), hdr)
	if replay.Code != http.StatusOK || replay.Body.String() != first.Body.String() {
		t.Fatalf("replay status=%d body=%s, want %s", replay.Code, replay.Body.String(), first.Body.String())
	}
	if name, _, _ := th.types.GetMemberType(context.Background(), 5); name != "staff" {
		t.Fatalf("member type=%q after replay", name)
	}

	conflict := th.do(t, http.MethodPost, path, form(id, "staff"), hdr)
	if conflict.Code != http.StatusConflict || !strings.Contains(conflict.Body.String(), "IDEMPOTENCY_KEY_REUSE") {
		t.Fatalf("conflict status=%d body=%s", conflict.Code, conflict.Body.String())
	}
}

func TestGetFieldValue_AppliesReadFilters(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)
	th.do(t, http.MethodPost, "/users/5/fields/"+id.String(), form(id, "staff"), formHeader)

	for _, q := range []string{"", "?path=data"} {
		rr := th.do(t, http.MethodGet, "/users/5/fields/"+id.String()+"/value"+q, nil, nil)
		var got FieldValueResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if rr.Code != http.StatusOK || got.Value != "staff" {
			t.Fatalf("%q: status=%d value=%q", q, rr.Code, got.Value)
		}
	}
	if rr := th.do(t, http.MethodGet, "/users/5/fields/"+id.String()+"/value?path=other", nil, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestFieldMeta_RestrictsRenderedOptions(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)

	body := `{"defaultValue":"staff","displayType":"radio","restriction":"restricted","selectedTypes":["staff","ghost"]}`
	rr := th.do(t, http.MethodPut, "/fields/"+id.String()+"/meta", strings.NewReader(body), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var meta FieldMeta
	if err := json.Unmarshal(rr.Body.Bytes(), &meta); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, err := meta.DefaultValue.Get(); err != nil || v != "staff" || len(meta.SelectedTypes) != 1 {
		t.Fatalf("meta=%+v", meta)
	}

	rr = th.do(t, http.MethodGet, "/users/9/fields/"+id.String()+"/edit", nil, nil)
	html := rr.Body.String()
	if !strings.Contains(html, `<input checked="checked" type="radio" name="`+id.InputName()+`" id="option_staff" value="staff">`) {
		t.Fatalf("edit html=%s", html)
	}
	if strings.Contains(html, "alumni") {
		t.Fatalf("restricted option rendered: %s", html)
	}

	rr = th.do(t, http.MethodPut, "/fields/"+id.String()+"/meta", strings.NewReader(`{"displayType":"checkbox"}`), nil)
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "VALIDATION_ERROR") {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestFieldMeta_NonMemberTypeField(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeTextbox, false)

	rr := th.do(t, http.MethodPut, "/fields/"+id.String()+"/meta", strings.NewReader(`{}`), nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = th.do(t, http.MethodGet, "/fields/"+id.String()+"/edit", nil, nil)
	if rr.Code != http.StatusConflict || !strings.Contains(rr.Body.String(), "UNSUPPORTED_FIELD_TYPE") {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestListFieldChildren(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)

	rr := th.do(t, http.MethodGet, "/fields/"+id.String()+"/children?for_editing=true", nil, nil)
	var got ListChildrenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rr.Code != http.StatusOK || len(got.Children) != 2 {
		t.Fatalf("status=%d children=%+v", rr.Code, got.Children)
	}
	c := got.Children[1]
	if c.Name != "Staff Member" || c.Type != "option" || c.ParentId != int64(id) || c.OptionOrder != 1 || !c.CanDelete {
		t.Fatalf("child=%+v", c)
	}
}

func TestSearchFieldType(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true, ProfileSearch: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)

	rr := th.do(t, http.MethodGet, "/fields/"+id.String()+"/search-type?hook=query", nil, nil)
	var got SearchTypeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != "selectbox" {
		t.Fatalf("got=%+v", got)
	}
	if rr := th.do(t, http.MethodGet, "/fields/"+id.String()+"/search-type?hook=bogus", nil, nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestListFieldTypes(t *testing.T) {
	t.Parallel()

	with := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true})
	rr := with.do(t, http.MethodGet, "/field-types", nil, nil)
	var got ListFieldTypesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.FieldTypes) != 1 || got.FieldTypes[0].Type != "membertype" || got.FieldTypes[0].Name != "Member Type Select Box" {
		t.Fatalf("field types=%+v", got.FieldTypes)
	}

	without := newTestHost(t, controller.HostCapabilities{})
	rr = without.do(t, http.MethodGet, "/field-types", nil, nil)
	got = ListFieldTypesResponse{}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.FieldTypes) != 0 {
		t.Fatalf("field types=%+v", got.FieldTypes)
	}
}

func TestListMemberTypes(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	rr := th.do(t, http.MethodGet, "/member-types", nil, nil)
	var got ListMemberTypesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.MemberTypes) != 2 || got.MemberTypes[0] != (MemberTypeOption{Name: "alumni", Label: "Alumnus"}) {
		t.Fatalf("member types=%+v", got.MemberTypes)
	}
}

func TestErrors(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	cases := []struct {
		path string
		hdr  map[string]string
		want int
	}{
		{path: "/fields/abc/admin", want: http.StatusBadRequest},
		{path: "/fields/999/admin", want: http.StatusNotFound},
		{path: "/member-types", hdr: map[string]string{DisplayedUserHeader: "nope"}, want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		rr := th.do(t, http.MethodGet, tc.path, nil, tc.hdr)
		if rr.Code != tc.want {
			t.Fatalf("%s: status=%d, want %d", tc.path, rr.Code, tc.want)
		}
		var er ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &er); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.path, err)
		}
		if rid, err := er.Error.RequestId.Get(); err != nil || rid == "" {
			t.Fatalf("%s: missing request id: %s", tc.path, rr.Body.String())
		}
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	t.Parallel()

	th := newTestHost(t, controller.HostCapabilities{FieldTypeRegistry: true}, campus()...)
	id := th.createField(t, domain.FieldTypeMemberType, false)
	th.do(t, http.MethodGet, "/fields/"+id.String()+"/admin", nil, nil)

	if rr := th.do(t, http.MethodGet, "/healthz", nil, nil); rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz status=%d body=%q", rr.Code, rr.Body.String())
	}
	rr := th.do(t, http.MethodGet, "/metrics", nil, nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `xprofile_membertype_render_total{mode="admin"} 1`) {
		t.Fatalf("metrics status=%d body=%s", rr.Code, rr.Body.String())
	}
}
