package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/services"
	"github.com/harentsoaR/medico-api/internal/store/memstore"
	"github.com/harentsoaR/medico-api/internal/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	_ = utils.SetPasswordCost(bcrypt.MinCost)
	os.Exit(m.Run())
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Appointment
}

func (n *recordingNotifier) NotifyStatusChange(apt *models.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, *apt)
}

type fakeUploader struct {
	folder string
	body   string
}

func (f *fakeUploader) Upload(_ context.Context, folder, filename, _ string, body io.Reader) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.folder, f.body = folder, string(raw)
	return "https://cdn.example.com/" + folder + "/" + filename, nil
}

type testServer struct {
	engine   *gin.Engine
	notifier *recordingNotifier
	uploader *fakeUploader
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tokens, err := utils.NewTokenIssuer("test-secret")
	require.NoError(t, err)
	revoked := services.NewMemoryRevocations(time.Hour)
	t.Cleanup(revoked.Close)

	notifier := &recordingNotifier{}
	uploader := &fakeUploader{}
	h := NewHandler(Deps{
		Repos:       memstore.NewRepositories(),
		Tokens:      tokens,
		Revocations: revoked,
		Uploader:    uploader,
		Notifier:    notifier,
	})
	return &testServer{engine: h.Router([]string{"http://localhost:5173"}), notifier: notifier, uploader: uploader}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type reply struct {
	*httptest.ResponseRecorder
	env envelope
}

func (r reply) decode(t *testing.T, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.env.Data, out))
}

// cookie returns the value of the named Set-Cookie header, or "".
func (r reply) cookie(name string) string {
	for _, ck := range r.Result().Cookies() {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (s *testServer) send(t *testing.T, req *http.Request, cookies map[string]string) reply {
	t.Helper()
	for name, value := range cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	r := reply{ResponseRecorder: w}
	if json.Valid(w.Body.Bytes()) {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r.env))
	}
	return r
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookies map[string]string) reply {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, cookies)
}

// formRequest builds a multipart request from fields plus a small "image" file.
func formRequest(t *testing.T, method, path string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("pixels"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (s *testServer) postForm(t *testing.T, path string, fields, cookies map[string]string) reply {
	t.Helper()
	return s.send(t, formRequest(t, http.MethodPost, path, fields), cookies)
}

func (s *testServer) putForm(t *testing.T, path string, fields, cookies map[string]string) reply {
	t.Helper()
	return s.send(t, formRequest(t, http.MethodPut, path, fields), cookies)
}

func orgBody(email string, lat, lng float64) gin.H {
	return gin.H{
		"email": email, "password": "secret1", "name": email, "phone": "555",
		"state": "KA", "city": "Bengaluru", "address": "1 Main St",
		"latitude": lat, "longitude": lng,
	}
}

// login registers nothing; it logs an existing account in and returns the token.
func (s *testServer) login(t *testing.T, kind, role string, body gin.H) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/"+kind+"/login", body, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var data map[string]json.RawMessage
	res.decode(t, &data)
	var token string
	require.NoError(t, json.Unmarshal(data["token"], &token))
	assert.Equal(t, token, res.cookie(role+"Token"))
	return token
}

func (s *testServer) registerUser(t *testing.T, email string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/users/register", gin.H{
		"email": email, "password": "secret1", "firstName": "Pat", "lastName": "Doe", "phone": "555",
	}, nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	return s.login(t, "users", "user", gin.H{"email": email, "password": "secret1"})
}

func (s *testServer) registerClinic(t *testing.T, email string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/clinics/register", orgBody(email, 12.97, 77.59), nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	return s.login(t, "clinics", "clinic", gin.H{"email": email, "password": "secret1"})
}

func TestHospitalRegisterLoginScenario(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodPost, "/api/hospitals/register", orgBody("h@x.com", 12.97, 77.59), nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	assert.True(t, res.env.Success)
	assert.NotContains(t, res.Body.String(), "password")

	token := s.login(t, "hospitals", "hospital", gin.H{"email": "h@x.com", "password": "secret1"})

	res = s.do(t, http.MethodGet, "/api/hospitals/me", nil, map[string]string{"hospitalToken": token})
	require.Equal(t, http.StatusOK, res.Code)
	var h models.Hospital
	res.decode(t, &h)
	assert.Equal(t, "h@x.com", h.Email)

	res = s.do(t, http.MethodGet, "/api/hospitals/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "No token provided", res.env.Message)
}

func TestRegisterAndLoginFailures(t *testing.T) {
	s := newTestServer(t)
	s.registerUser(t, "pat@x.com")

	res := s.do(t, http.MethodPost, "/api/users/register", gin.H{
		"email": "PAT@x.com", "password": "secret1", "firstName": "P", "lastName": "D", "phone": "1",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "User already registered with this email", res.env.Message)

	res = s.do(t, http.MethodPost, "/api/users/login", gin.H{"email": "pat@x.com", "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Invalid credentials", res.env.Message)

	res = s.do(t, http.MethodPost, "/api/users/login", gin.H{"email": "nobody@x.com", "password": "secret1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Invalid credentials", res.env.Message)

	res = s.do(t, http.MethodPost, "/api/users/login", gin.H{"email": "pat@x.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(t, http.MethodPost, "/api/hospitals/register", gin.H{"email": "h@x.com", "password": "secret1"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.registerUser(t, "pat@x.com")
	cookies := map[string]string{"userToken": token}

	res := s.do(t, http.MethodPost, "/api/users/logout", nil, cookies)
	require.Equal(t, http.StatusOK, res.Code)
	for _, ck := range res.Result().Cookies() {
		if ck.Name == "userToken" {
			assert.Empty(t, ck.Value)
			assert.Negative(t, ck.MaxAge)
		}
	}

	res = s.do(t, http.MethodGet, "/api/users/me", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Invalid or expired token", res.env.Message)

	res = s.do(t, http.MethodGet, "/api/token/validate", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestUpdateProfileKeepsIdentity(t *testing.T) {
	s := newTestServer(t)
	token := s.registerUser(t, "pat@x.com")
	cookies := map[string]string{"userToken": token}

	res := s.do(t, http.MethodPut, "/api/users/me", gin.H{"email": "other@x.com", "phone": "999", "gender": "female"}, cookies)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var u models.User
	res.decode(t, &u)
	assert.Equal(t, "pat@x.com", u.Email)
	assert.Equal(t, "999", u.Phone)
	assert.Equal(t, "Pat", u.FirstName)

	// The password survives the edit.
	s.login(t, "users", "user", gin.H{"email": "pat@x.com", "password": "secret1"})
}

func TestConsultantMultipartRegistration(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"email": "k@x.com", "password": "secret1", "doctorName": "Dr K", "phone": "1",
		"state": "KA", "city": "B", "address": "A", "description": "GP",
		"latitude": "12.9", "longitude": "77.6", "consultationFees": "300",
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("image", "face.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("pixels"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/consultants/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	res := s.send(t, req, nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	var k models.Consultant
	res.decode(t, &k)
	assert.Equal(t, "https://cdn.example.com/consultants/face.png", k.Image)
	assert.Equal(t, 300.0, k.ConsultationFees)
	assert.Equal(t, "consultants", s.uploader.folder)
	assert.Equal(t, "pixels", s.uploader.body)

	token := s.login(t, "consultants", "consultant", gin.H{"email": "k@x.com", "password": "secret1"})
	res = s.do(t, http.MethodGet, "/api/token/validate", nil, map[string]string{"consultantToken": token})
	require.Equal(t, http.StatusOK, res.Code)
	var who struct {
		UserType string `json:"userType"`
	}
	res.decode(t, &who)
	assert.Equal(t, "consultant", who.UserType)
}

func TestDoctorManagement(t *testing.T) {
	s := newTestServer(t)
	clinic := map[string]string{"clinicToken": s.registerClinic(t, "c@x.com")}
	other := map[string]string{"clinicToken": s.registerClinic(t, "other@x.com")}

	doctor := gin.H{
		"name": "Dr K", "email": "k@x.com", "userId": "drk1", "experience": 5,
		"degrees": []string{"MBBS"}, "specialties": []string{"Cardiology"},
		"timeSlots": gin.H{"start": "09:00", "end": "17:00"},
		"password": "secret1", "confirmPassword": "nope",
	}
	res := s.do(t, http.MethodPost, "/api/doctors/add", doctor, clinic)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Passwords do not match", res.env.Message)

	res = s.do(t, http.MethodPost, "/api/doctors/add", doctor, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	doctor["confirmPassword"] = "secret1"
	res = s.do(t, http.MethodPost, "/api/doctors/add", doctor, clinic)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var d models.Doctor
	res.decode(t, &d)
	assert.Equal(t, models.OrganizationClinic, d.OrganizationType)
	assert.Equal(t, "c@x.com", d.OrganizationEmail)
	assert.Equal(t, "Bengaluru", d.City)
	require.NotNil(t, d.Latitude)
	assert.Equal(t, 12.97, *d.Latitude)

	res = s.do(t, http.MethodPost, "/api/doctors/add", doctor, clinic)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Doctor with this user ID already exists", res.env.Message)

	res = s.postForm(t, "/api/doctors/add", map[string]string{
		"name": "Dr M", "email": "m@x.com", "userId": "drm1", "experience": "3",
		"degrees": "MD", "specialties": "General Medicine", "consultationFees": "250",
		"timeSlots.start": "10:00", "timeSlots.end": "14:00",
		"password": "secret1", "confirmPassword": "secret1",
	}, clinic)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var m models.Doctor
	res.decode(t, &m)
	assert.Equal(t, "Dr M", m.Name)
	assert.Equal(t, "drm1", m.UserID)
	assert.Equal(t, []string{"General Medicine"}, m.Specialties)
	assert.Equal(t, models.TimeSlots{Start: "10:00", End: "14:00"}, m.TimeSlots)
	assert.Equal(t, "https://cdn.example.com/doctors/photo.png", m.Image)

	mToken := s.login(t, "doctors", "doctor", gin.H{"userId": "drm1", "password": "secret1"})
	res = s.putForm(t, "/api/doctors/me", map[string]string{
		"name": "Dr Mira", "timeSlots": `{"start":"11:00","end":"15:00"}`, "organizationEmail": "evil@x.com",
	}, map[string]string{"doctorToken": mToken})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res.decode(t, &m)
	assert.Equal(t, "Dr Mira", m.Name)
	assert.Equal(t, "11:00", m.TimeSlots.Start)
	assert.Equal(t, "c@x.com", m.OrganizationEmail)

	token := s.login(t, "doctors", "doctor", gin.H{"userId": "drk1", "password": "secret1"})
	res = s.do(t, http.MethodGet, "/api/doctors/me", nil, map[string]string{"doctorToken": token})
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodPut, "/api/doctors/me", gin.H{"organizationEmail": "evil@x.com", "experience": 6}, map[string]string{"doctorToken": token})
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res.decode(t, &d)
	assert.Equal(t, "c@x.com", d.OrganizationEmail)
	assert.Equal(t, 6, d.Experience)

	res = s.do(t, http.MethodGet, "/api/doctors", nil, clinic)
	require.Equal(t, http.StatusOK, res.Code)
	var list []models.Doctor
	res.decode(t, &list)
	assert.Len(t, list, 2)

	res = s.do(t, http.MethodGet, "/api/doctors/organization/"+d.OrganizationID.Hex(), nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res.decode(t, &list)
	assert.Len(t, list, 2)

	res = s.do(t, http.MethodGet, "/api/doctors/organization/"+d.ID.Hex(), nil, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = s.do(t, http.MethodDelete, "/api/doctors/delete/"+d.ID.Hex(), nil, other)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodDelete, "/api/doctors/delete/"+d.ID.Hex(), nil, clinic)
	assert.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodGet, "/api/doctors/me", nil, map[string]string{"doctorToken": token})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Account no longer exists", res.env.Message)
}

func (s *testServer) book(t *testing.T, cookies map[string]string, fees float64, patientType string) models.Appointment {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/appointments/create", gin.H{
		"organizationType": "Clinic", "organizationName": "Care", "organizationEmail": "clinic@x.com",
		"doctorName": "Dr K", "doctorEmail": "k@x.com",
		"appointmentDate": time.Now().Format(time.RFC3339), "timeSlot": "10:30",
		"fees": fees, "patientType": patientType,
	}, cookies)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var apt models.Appointment
	res.decode(t, &apt)
	return apt
}

func TestAppointmentsAndDashboard(t *testing.T) {
	s := newTestServer(t)
	clinic := map[string]string{"clinicToken": s.registerClinic(t, "clinic@x.com")}
	patient := map[string]string{"userToken": s.registerUser(t, "pat@x.com")}
	stranger := map[string]string{"userToken": s.registerUser(t, "stranger@x.com")}

	first := s.book(t, patient, 500, "new")
	s.book(t, patient, 200, "regular")
	s.book(t, patient, 0, "")
	assert.Equal(t, models.StatusPending, first.Status)
	assert.Equal(t, "pat@x.com", first.Email)
	assert.Equal(t, "Pat", first.FirstName)

	res := s.do(t, http.MethodGet, "/api/appointments/"+first.ID.Hex(), nil, stranger)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodGet, "/api/appointments/"+first.ID.Hex(), nil, patient)
	assert.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodPost, "/api/hospitals/register", orgBody("h@x.com", 12.97, 77.59), nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	hospital := map[string]string{"hospitalToken": s.login(t, "hospitals", "hospital", gin.H{"email": "h@x.com", "password": "secret1"})}
	res = s.do(t, http.MethodPatch, "/api/appointments/update/"+first.ID.Hex(), gin.H{"status": "Completed"}, hospital)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "No token provided", res.env.Message)

	res = s.do(t, http.MethodPatch, "/api/appointments/update/"+first.ID.Hex(), gin.H{"status": "Done"}, clinic)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(t, http.MethodPatch, "/api/appointments/update/"+first.ID.Hex(), gin.H{"status": "Completed"}, clinic)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Len(t, s.notifier.sent, 1)
	assert.Equal(t, models.StatusCompleted, s.notifier.sent[0].Status)

	res = s.do(t, http.MethodGet, "/api/appointments/all?status=Pending", nil, clinic)
	require.Equal(t, http.StatusOK, res.Code)
	var list []models.Appointment
	res.decode(t, &list)
	assert.Len(t, list, 2)

	res = s.do(t, http.MethodGet, "/api/appointments/all?from=2000-01-01&to=2000-01-02", nil, clinic)
	require.Equal(t, http.StatusOK, res.Code)
	res.decode(t, &list)
	assert.Empty(t, list)

	res = s.do(t, http.MethodGet, "/api/appointments/all?from=yesterday", nil, clinic)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	var dash services.Dashboard
	res = s.do(t, http.MethodGet, "/api/dashboard", nil, clinic)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res.decode(t, &dash)
	assert.EqualValues(t, 3, dash.Appointments)
	assert.EqualValues(t, 3, dash.TodayPatients)
	assert.EqualValues(t, 1, dash.TotalPatients)
	assert.Equal(t, 500.0, dash.Revenue)
	assert.Len(t, dash.WeeklyAppointments, 7)
	require.Len(t, dash.PatientDistribution, 3)
	assert.EqualValues(t, 2, dash.PatientDistribution[0].Value)

	// Completed -> Cancelled drops that fee from revenue but not the count.
	res = s.do(t, http.MethodPatch, "/api/appointments/update/"+first.ID.Hex(), gin.H{"status": "Cancelled"}, clinic)
	require.Equal(t, http.StatusOK, res.Code)
	res = s.do(t, http.MethodGet, "/api/dashboard", nil, clinic)
	res.decode(t, &dash)
	assert.Equal(t, 0.0, dash.Revenue)
	assert.EqualValues(t, 3, dash.Appointments)

	res = s.do(t, http.MethodDelete, "/api/appointments/delete/"+first.ID.Hex(), nil, clinic)
	assert.Equal(t, http.StatusOK, res.Code)
	res = s.do(t, http.MethodGet, "/api/appointments/"+first.ID.Hex(), nil, patient)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestNearbySearch(t *testing.T) {
	s := newTestServer(t)
	for email, lat := range map[string]float64{"near@x.com": 12.971, "mid@x.com": 13.0, "far@x.com": 14.5} {
		res := s.do(t, http.MethodPost, "/api/hospitals/register", orgBody(email, lat, 77.59), nil)
		require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	}

	var out struct {
		Success bool              `json:"success"`
		Count   int               `json:"count"`
		Results []models.Hospital `json:"results"`
	}
	res := s.do(t, http.MethodPost, "/api/search/hospitals/nearby", gin.H{"latitude": "12.97", "longitude": 77.59, "radius": 10}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "near@x.com", out.Results[0].Email)
	assert.Equal(t, "mid@x.com", out.Results[1].Email)

	res = s.do(t, http.MethodPost, "/api/search/hospitals/nearby", gin.H{"latitude": 12.97, "longitude": 77.59, "limit": 1}, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "near@x.com", out.Results[0].Email)

	for _, limit := range []any{1e300, "NaN", -4} {
		res = s.do(t, http.MethodPost, "/api/search/hospitals/nearby", gin.H{"latitude": 12.97, "longitude": 77.59, "limit": limit}, nil)
		require.Equal(t, http.StatusOK, res.Code, "limit %v", limit)
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
		assert.Equal(t, 2, out.Count, "limit %v", limit)
	}

	res = s.do(t, http.MethodPost, "/api/search/clinics/nearby", gin.H{"latitude": 12.97, "longitude": 77.59}, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.Equal(t, 0, out.Count)
	assert.NotNil(t, out.Results)

	for name, body := range map[string]gin.H{
		"non-numeric":  {"latitude": "north", "longitude": 77.59},
		"missing":      {"longitude": 77.59},
		"out of range": {"latitude": 91, "longitude": 77.59},
	} {
		t.Run(name, func(t *testing.T) {
			res := s.do(t, http.MethodPost, "/api/search/doctors/nearby", body, nil)
			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.False(t, res.env.Success)
		})
	}
}

func TestReviews(t *testing.T) {
	s := newTestServer(t)
	author := map[string]string{"userToken": s.registerUser(t, "pat@x.com")}
	other := map[string]string{"userToken": s.registerUser(t, "other@x.com")}

	res := s.do(t, http.MethodPost, "/api/reviews/create", gin.H{"entityEmail": "h@x.com", "entityType": "Hospital", "rating": 4}, nil)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var guest models.Review
	res.decode(t, &guest)
	assert.Equal(t, models.GuestEmail, guest.ReviewerEmail)
	assert.Equal(t, "Guest", guest.UserType)

	res = s.do(t, http.MethodPost, "/api/reviews/create", gin.H{
		"entityEmail": "h@x.com", "entityType": "Hospital", "rating": 5, "reviewerEmail": "pat@x.com", "comment": "Great",
	}, nil)
	require.Equal(t, http.StatusCreated, res.Code)
	var mine models.Review
	res.decode(t, &mine)

	res = s.do(t, http.MethodPost, "/api/reviews/create", gin.H{"entityEmail": "h@x.com", "entityType": "Hospital", "rating": 9}, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(t, http.MethodGet, "/api/reviews/entity/Hospital/h@x.com", nil, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var list []models.Review
	res.decode(t, &list)
	assert.Len(t, list, 2)

	res = s.do(t, http.MethodPatch, "/api/reviews/update/"+mine.ID.Hex(), gin.H{"rating": 3}, other)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodPatch, "/api/reviews/update/"+mine.ID.Hex(), gin.H{"rating": 3}, author)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res.decode(t, &mine)
	assert.Equal(t, 3, mine.Rating)
	assert.Equal(t, "Great", mine.Comment)

	res = s.do(t, http.MethodDelete, "/api/reviews/delete/"+guest.ID.Hex(), nil, author)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodDelete, "/api/reviews/delete/"+mine.ID.Hex(), nil, author)
	assert.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodGet, "/api/reviews/all", nil, nil)
	res.decode(t, &list)
	assert.Len(t, list, 1)
}

func TestDailyCaloriesEndpoint(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodPost, "/api/health/calories", gin.H{
		"gender": "male", "age": 30, "height_cm": 180, "weight_kg": 80, "activity_level": "moderate",
	}, nil)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var out services.CalorieResult
	res.decode(t, &out)
	assert.EqualValues(t, 1780, out.BMR)
	assert.EqualValues(t, 2759, out.DailyCalories)

	res = s.do(t, http.MethodGet, "/api/health/search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "Search query is required", res.env.Message)
}
