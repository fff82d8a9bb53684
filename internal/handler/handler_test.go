package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sof-stats/internal/domain/entity"
	"github.com/yourusername/sof-stats/internal/middleware"
	"github.com/yourusername/sof-stats/internal/service"
	"github.com/yourusername/sof-stats/internal/service/stats"
	"github.com/yourusername/sof-stats/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memRevocations отозванные токены в памяти
type memRevocations struct{ ids map[string]bool }

func (m *memRevocations) Revoke(_ context.Context, id string, _ time.Duration) error {
	m.ids[id] = true
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	return m.ids[id], nil
}

// testEnv сервисы поверх данных в памяти и роутер с теми же маршрутами, что в cmd/api
type testEnv struct {
	router         *gin.Engine
	episodeService *service.EpisodeService
	adminService   *service.AdminService
	email          *captureEmail
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	participants, episodes, results := memParticipants{db}, memEpisodes{db}, memResults{db}

	jwtService, err := auth.NewJWTService("handler-secret", 1, &memRevocations{ids: map[string]bool{}})
	require.NoError(t, err)

	engine := stats.NewEngine(stats.NewRepositoryStore(participants, results, episodes))
	statsCache := service.NewStatsCache(newMemCache(), time.Hour)
	invites, err := service.NewInviteManager()
	require.NoError(t, err)
	email := &captureEmail{}

	env := &testEnv{
		episodeService: service.NewEpisodeService(episodes, engine, statsCache, nil),
		adminService:   service.NewAdminService(&memAdmins{}, newMemCache(), invites, email, jwtService, "owner@example.com"),
		email:          email,
	}
	participantService := service.NewParticipantService(participants, statsCache)

	statsHandler := NewStatsHandler(service.NewStatsService(engine, statsCache), participantService, env.episodeService)
	episodeHandler := NewEpisodeHandler(env.episodeService)
	participantHandler := NewParticipantHandler(participantService)
	adminHandler := NewAdminHandler(env.adminService, false)
	chartHandler := NewChartHandler(service.NewChartService(engine, participants, episodes, statsCache))
	exportHandler := NewExportHandler(service.NewExportService(results, participants, episodes))
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	r := gin.New()
	api := r.Group("/api")
	{
		statsGroup := api.Group("/stats")
		statsGroup.GET("/participants/:name/accuracy", statsHandler.GetAccuracy)
		statsGroup.GET("/participants/:name/accuracy/series", statsHandler.GetAccuracySeries)
		statsGroup.GET("/participants/:name/attendance", statsHandler.GetAttendance)
		statsGroup.GET("/sweeps", statsHandler.GetSweeps)
		statsGroup.GET("/summary/rogues", statsHandler.GetRogueSummary)
		statsGroup.GET("/summary/guests", statsHandler.GetGuestSummary)
		statsGroup.GET("/summary/episodes", statsHandler.GetEpisodeSummary)

		api.GET("/charts/:type", chartHandler.GetChart)
		api.GET("/episodes", episodeHandler.ListEpisodes)
		api.GET("/episodes/:num", middleware.ExtractIntParam("num", "epNum"), episodeHandler.GetEpisode)
		api.GET("/themes", episodeHandler.ListThemes)
		api.GET("/years", episodeHandler.ListYears)
		api.GET("/participants/rogues", participantHandler.ListRogues)
		api.GET("/participants/guests", participantHandler.ListGuests)

		admin := api.Group("/admin")
		admin.POST("/login", adminHandler.Login)
		admin.POST("/create", adminHandler.CreateAdmin)
		admin.POST("/authenticate", adminHandler.Authenticate)

		protected := admin.Group("")
		protected.Use(authMiddleware.RequireAdmin())
		protected.POST("/logout", adminHandler.Logout)
		protected.GET("/me", adminHandler.Me)
		protected.POST("/episodes", episodeHandler.AddEpisode)
		protected.POST("/participants", participantHandler.AddParticipant)
		protected.GET("/export", exportHandler.Export)
	}
	env.router = r

	seedFixture(t, participantService, env.episodeService)
	return env
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedFixture три эпизода января 2015:
// 500 (Space): Bob прав, Jay ошибся - без свипа;
// 501: Bob, Jay и гость Brian Wecht правы - participant_sweep;
// 502 (Space): Bob ошибся, Jay отсутствовал - presenter_sweep.
// Во всех эпизодах рубрику ведет Steve, Rebecca к 2015 году уже ушла.
func seedFixture(t *testing.T, participants *service.ParticipantService, episodes *service.EpisodeService) {
	t.Helper()
	ctx := context.Background()
	start, end := day(2005, time.May, 4), day(2014, time.December, 20)
	for _, name := range []string{"Steve", "Bob", "Jay"} {
		_, err := participants.AddParticipant(ctx, service.AddParticipantInput{Name: name, IsRogue: true, StartDate: &start})
		require.NoError(t, err)
	}
	_, err := participants.AddParticipant(ctx, service.AddParticipantInput{Name: "Rebecca", IsRogue: true, StartDate: &start, EndDate: &end})
	require.NoError(t, err)

	inputs := []service.AddEpisodeInput{
		{EpNum: 500, Date: day(2015, time.January, 3), NumItems: 3, Theme: "Space", Presenter: "Steve",
			Rogues: map[string]string{"Bob": "correct", "Jay": "incorrect", "Rebecca": "NULL"}},
		{EpNum: 501, Date: day(2015, time.January, 10), NumItems: 3, Presenter: "Steve",
			Rogues: map[string]string{"Bob": "correct", "Jay": "correct"},
			Guests: []service.GuestInput{{Name: "brian wecht", Label: "correct"}}},
		{EpNum: 502, Date: day(2015, time.January, 17), NumItems: 4, Theme: "Space", Presenter: "Steve",
			Rogues: map[string]string{"Bob": "incorrect", "Jay": "absent"}},
	}
	for _, in := range inputs {
		_, err := episodes.AddEpisode(ctx, in)
		require.NoError(t, err)
	}
}

// performRequest выполняет запрос к роутеру; body кодируется в JSON
func performRequest(r http.Handler, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

// login входит под тестовым администратором и возвращает cookie сессии
func (env *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	require.NoError(t, env.adminService.EnsureAdmin(context.Background(), "admin", "adminpass"))
	w := performRequest(env.router, http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "adminpass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	return cookie
}

// ============================================================================
// Статистика
// ============================================================================

func TestStatsHandler_Accuracy(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name          string
		path          string
		wantAccuracy  float64
		wantCorrect   float64
		wantIncorrect float64
	}{
		{"за все время", "/api/stats/participants/bob/accuracy", 2.0 / 3.0, 2, 1},
		{"по теме", "/api/stats/participants/Bob/accuracy?theme=Space", 0.5, 1, 1},
		{"тема all снимает фильтр", "/api/stats/participants/Bob/accuracy?theme=all", 2.0 / 3.0, 2, 1},
		{"диапазон дат включительно", "/api/stats/participants/Bob/accuracy?start=2015-01-10&end=2015-01-17", 0.5, 1, 1},
		{"ведущий не попадает в точность", "/api/stats/participants/Steve/accuracy", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(env.router, http.MethodGet, tt.path, nil)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			resp := parseJSONResponse(t, w)
			assert.InDelta(t, tt.wantAccuracy, resp["accuracy"], 1e-9)
			assert.Equal(t, tt.wantCorrect, resp["num_correct"])
			assert.Equal(t, tt.wantIncorrect, resp["num_incorrect"])
		})
	}
}

func TestStatsHandler_Errors(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantType   string
	}{
		{"неизвестный участник", "/api/stats/participants/Nobody/accuracy", http.StatusNotFound, "not_found"},
		{"неверная дата", "/api/stats/participants/Bob/accuracy?start=2015-13-01", http.StatusUnprocessableEntity, "validation_error"},
		{"начало позже конца", "/api/stats/participants/Bob/attendance?start=2016-01-01&end=2015-01-01", http.StatusUnprocessableEntity, "validation_error"},
		{"неизвестный scope", "/api/stats/sweeps?scope=weird", http.StatusUnprocessableEntity, "validation_error"},
		{"неизвестный тип графика", "/api/charts/pie", http.StatusUnprocessableEntity, "validation_error"},
		{"неверный год графика", "/api/charts/sweeps?year=20x5", http.StatusUnprocessableEntity, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(env.router, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantType, parseJSONResponse(t, w)["error_type"])
		})
	}
}

func TestStatsHandler_AccuracySeries(t *testing.T) {
	env := setupTestEnv(t)

	w := performRequest(env.router, http.MethodGet, "/api/stats/participants/Bob/accuracy/series", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Participant string `json:"participant"`
		Points      []struct {
			EpNum    int     `json:"ep_num"`
			Date     string  `json:"date"`
			Accuracy float64 `json:"accuracy"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bob", resp.Participant)
	require.Len(t, resp.Points, 3)
	assert.Equal(t, 500, resp.Points[0].EpNum)
	assert.Equal(t, "2015-01-03", resp.Points[0].Date)
	assert.InDelta(t, 1.0, resp.Points[1].Accuracy, 1e-9)
	assert.InDelta(t, 2.0/3.0, resp.Points[2].Accuracy, 1e-9)
}

func TestStatsHandler_Attendance(t *testing.T) {
	env := setupTestEnv(t)

	jay := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/stats/participants/Jay/attendance", nil))
	steve := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/stats/participants/Steve/attendance", nil))

	assert.InDelta(t, 2.0/3.0, jay["attendance"], 1e-9)
	assert.InDelta(t, 1.0, steve["attendance"], 1e-9)
}

func TestStatsHandler_Sweeps(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		scope    string
		wantNums []float64
	}{
		{"both", []float64{501, 502}},
		{"presenter", []float64{502}},
		{"participant", []float64{501}},
	}
	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			resp := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/stats/sweeps?scope="+tt.scope, nil))

			episodes := resp["episodes"].([]interface{})
			nums := make([]float64, 0, len(episodes))
			for _, e := range episodes {
				nums = append(nums, e.(map[string]interface{})["ep_num"].(float64))
			}
			assert.Equal(t, tt.wantNums, nums)
			assert.Equal(t, float64(len(tt.wantNums)), resp["total"])
		})
	}
}

func TestStatsHandler_RogueSummary(t *testing.T) {
	env := setupTestEnv(t)

	w := performRequest(env.router, http.MethodGet, "/api/stats/summary/rogues", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Rogues []struct {
			Name         string `json:"name"`
			RogueEndDate string `json:"rogue_end_date"`
			Correct      int    `json:"correct"`
		} `json:"rogues"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rogues, 4)
	for _, r := range resp.Rogues {
		if r.Name == "Rebecca" {
			assert.Equal(t, "2014-12-20", r.RogueEndDate)
		}
		if r.Name == "Bob" {
			assert.Equal(t, 2, r.Correct)
		}
	}
}

func TestStatsHandler_GuestSummaryCountsAnsweredEpisodesOnly(t *testing.T) {
	// Arrange
	env := setupTestEnv(t)
	_, err := env.episodeService.AddEpisode(context.Background(), service.AddEpisodeInput{
		EpNum: 503, Date: day(2015, time.January, 24), NumItems: 3, Presenter: "Steve",
		Rogues: map[string]string{"Bob": "correct"},
		Guests: []service.GuestInput{
			{Name: "Brian Wecht", Label: "absent"},
			{Name: "george hrab", Label: "incorrect"},
		},
	})
	require.NoError(t, err)

	// Act
	w := performRequest(env.router, http.MethodGet, "/api/stats/summary/guests", nil)

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Guests []struct {
			Name           string `json:"name"`
			NumAppearances int    `json:"num_appearances"`
			Correct        int    `json:"correct"`
			Incorrect      int    `json:"incorrect"`
		} `json:"guests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Guests, 2)
	assert.Equal(t, "Brian Wecht", resp.Guests[0].Name)
	assert.Equal(t, 1, resp.Guests[0].NumAppearances, "отсутствие не считается появлением")
	assert.Equal(t, 1, resp.Guests[0].Correct)
	assert.Equal(t, "George Hrab", resp.Guests[1].Name)
	assert.Equal(t, 1, resp.Guests[1].Incorrect)
}

func TestChartHandler_Sweeps(t *testing.T) {
	env := setupTestEnv(t)

	w := performRequest(env.router, http.MethodGet, "/api/charts/sweeps?year=2015", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var chart service.Chart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	assert.Equal(t, "sweeps:2015:", chart.Name)
	require.Len(t, chart.Series, 2)
	last := chart.Series[0].Points[len(chart.Series[0].Points)-1]
	assert.Equal(t, "2015-01-17", last.Date)
}

// ============================================================================
// Эпизоды и участники
// ============================================================================

func TestEpisodeHandler_Read(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("список по убыванию номера", func(t *testing.T) {
		resp := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/episodes", nil))
		episodes := resp["episodes"].([]interface{})
		require.Len(t, episodes, 3)
		assert.Equal(t, float64(502), episodes[0].(map[string]interface{})["ep_num"])
	})

	t.Run("эпизод по номеру", func(t *testing.T) {
		w := performRequest(env.router, http.MethodGet, "/api/episodes/501", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := parseJSONResponse(t, w)
		assert.Equal(t, "2015-01-10", resp["date"])
		assert.Equal(t, "participant_sweep", resp["sweep"])
		assert.NotContains(t, resp, "theme")
	})

	t.Run("нет такого эпизода", func(t *testing.T) {
		w := performRequest(env.router, http.MethodGet, "/api/episodes/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("номер не число", func(t *testing.T) {
		w := performRequest(env.router, http.MethodGet, "/api/episodes/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("темы и годы", func(t *testing.T) {
		themes := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/themes", nil))
		years := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/years", nil))
		assert.Equal(t, []interface{}{"Space"}, themes["themes"])
		assert.Equal(t, []interface{}{float64(2015)}, years["years"])
	})
}

func TestParticipantHandler_Lists(t *testing.T) {
	env := setupTestEnv(t)

	names := func(resp map[string]interface{}, key string) []string {
		var out []string
		for _, p := range resp[key].([]interface{}) {
			out = append(out, p.(map[string]interface{})["name"].(string))
		}
		return out
	}

	all := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/participants/rogues", nil))
	on := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/participants/rogues?on=2015-01-01", nil))
	guests := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/participants/guests", nil))

	assert.Equal(t, []string{"Bob", "Jay", "Rebecca", "Steve"}, names(all, "rogues"))
	assert.Equal(t, []string{"Bob", "Jay", "Steve"}, names(on, "rogues"))
	assert.Equal(t, []string{"Brian Wecht"}, names(guests, "guests"))

	w := performRequest(env.router, http.MethodGet, "/api/participants/rogues?on=yesterday", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

// ============================================================================
// Администрирование
// ============================================================================

func TestAdminHandler_ValidationErrors(t *testing.T) {
	handler := &AdminHandler{} // сервис не нужен: 400 возвращается до его вызова

	tests := []struct {
		name   string
		call   func(c *gin.Context)
		body   interface{}
		target string
	}{
		{"login без пароля", handler.Login, map[string]string{"username": "admin"}, "/api/admin/login"},
		{"create без подтверждения", handler.CreateAdmin, map[string]string{"username": "cara", "first_name": "Cara", "last_name": "Santa Maria", "password": "longpassword"}, "/api/admin/create"},
		{"authenticate без кода", handler.Authenticate, map[string]string{"request_token": "abc"}, "/api/admin/authenticate"},
		{"пустое тело", handler.Login, nil, "/api/admin/login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			var body []byte
			if tt.body != nil {
				body, _ = json.Marshal(tt.body)
			}
			c.Request = httptest.NewRequest(http.MethodPost, tt.target, bytes.NewReader(body))
			c.Request.Header.Set("Content-Type", "application/json")

			tt.call(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_request", parseJSONResponse(t, w)["error_type"])
		})
	}
}

func TestAdminHandler_LoginAndLogout(t *testing.T) {
	env := setupTestEnv(t)
	require.NoError(t, env.adminService.EnsureAdmin(context.Background(), "admin", "adminpass"))

	t.Run("неверный пароль", func(t *testing.T) {
		w := performRequest(env.router, http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid_credentials", parseJSONResponse(t, w)["error_type"])
	})

	// Успешный вход ставит HttpOnly cookie
	cookie := env.login(t)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	me := performRequest(env.router, http.MethodGet, "/api/admin/me", nil, cookie)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "admin", parseJSONResponse(t, me)["username"])

	// Выход отзывает токен и очищает cookie
	w := performRequest(env.router, http.MethodPost, "/api/admin/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := sessionCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	after := performRequest(env.router, http.MethodGet, "/api/admin/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, after.Code)
	assert.Equal(t, "token_revoked", parseJSONResponse(t, after)["error_type"])
}

func TestAdminHandler_CreateAndAuthenticate(t *testing.T) {
	env := setupTestEnv(t)
	request := map[string]string{
		"username":         "cara",
		"first_name":       "Cara",
		"last_name":        "Santa Maria",
		"password":         "longpassword",
		"password_confirm": "longpassword",
	}

	// Несовпадающие пароли
	mismatch := map[string]string{}
	for k, v := range request {
		mismatch[k] = v
	}
	mismatch["password_confirm"] = "different-password"
	w := performRequest(env.router, http.MethodPost, "/api/admin/create", mismatch)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Заявка принята, код ушел владельцу
	w = performRequest(env.router, http.MethodPost, "/api/admin/create", request)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	token := parseJSONResponse(t, w)["request_token"].(string)
	code := env.email.code()
	require.Len(t, code, 10)

	// Неверный код
	w = performRequest(env.router, http.MethodPost, "/api/admin/authenticate", map[string]string{"request_token": token, "code": "WRONGCODE!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_invite_code", parseJSONResponse(t, w)["error_type"])

	// Верный код создает администратора и открывает сессию
	w = performRequest(env.router, http.MethodPost, "/api/admin/authenticate", map[string]string{"request_token": token, "code": code})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "cara", resp["admin"].(map[string]interface{})["username"])
	require.NotNil(t, sessionCookie(w))

	// Код одноразовый, заявка удалена
	w = performRequest(env.router, http.MethodPost, "/api/admin/authenticate", map[string]string{"request_token": token, "code": code})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Созданный администратор может войти
	w = performRequest(env.router, http.MethodPost, "/api/admin/login", map[string]string{"username": "cara", "password": "longpassword"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEpisodeHandler_AddEpisode(t *testing.T) {
	env := setupTestEnv(t)
	body := map[string]interface{}{
		"ep_num":    503,
		"date":      "2015-01-24",
		"num_items": 3,
		"theme":     "Biology",
		"presenter": "Steve",
		"rogues":    map[string]string{"Bob": "correct", "Jay": "incorrect"},
		"guests":    []map[string]string{{"name": "George Hrab", "result": "correct"}},
	}

	t.Run("без сессии", func(t *testing.T) {
		w := performRequest(env.router, http.MethodPost, "/api/admin/episodes", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	cookie := env.login(t)

	t.Run("успешно", func(t *testing.T) {
		w := performRequest(env.router, http.MethodPost, "/api/admin/episodes", body, cookie)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := parseJSONResponse(t, w)
		assert.Equal(t, "none", resp["sweep"])
		assert.Len(t, resp["results"], 4) // Bob, Jay, гость и ведущий Steve

		// Новый эпизод сразу попадает в статистику: кеш сброшен
		acc := parseJSONResponse(t, performRequest(env.router, http.MethodGet, "/api/stats/participants/Bob/accuracy", nil))
		assert.Equal(t, float64(3), acc["num_correct"])
	})

	t.Run("повтор номера", func(t *testing.T) {
		w := performRequest(env.router, http.MethodPost, "/api/admin/episodes", body, cookie)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("неверная метка", func(t *testing.T) {
		bad := map[string]interface{}{
			"ep_num": 504, "date": "2015-01-31", "num_items": 3, "presenter": "Steve",
			"rogues": map[string]string{"Bob": "maybe"},
		}
		w := performRequest(env.router, http.MethodPost, "/api/admin/episodes", bad, cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid_outcome_label", parseJSONResponse(t, w)["error_type"])
	})

	t.Run("неизвестный rogue", func(t *testing.T) {
		bad := map[string]interface{}{
			"ep_num": 505, "date": "2015-02-07", "num_items": 3, "presenter": "Steve",
			"rogues": map[string]string{"Perry": "correct"},
		}
		w := performRequest(env.router, http.MethodPost, "/api/admin/episodes", bad, cookie)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("нет обязательных полей", func(t *testing.T) {
		w := performRequest(env.router, http.MethodPost, "/api/admin/episodes", map[string]interface{}{"ep_num": 506}, cookie)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestParticipantHandler_AddParticipant(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.login(t)

	w := performRequest(env.router, http.MethodPost, "/api/admin/participants",
		map[string]interface{}{"name": "cara santa maria", "is_rogue": true, "rogue_start_date": "2014-06-14"}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Cara Santa Maria", resp["name"])
	assert.Equal(t, "2014-06-14", resp["rogue_start_date"])

	w = performRequest(env.router, http.MethodPost, "/api/admin/participants",
		map[string]interface{}{"name": "Perry", "is_rogue": true, "rogue_start_date": "2007-01-01", "rogue_end_date": "2006-01-01"}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestExportHandler_Export(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.login(t)

	t.Run("csv", func(t *testing.T) {
		w := performRequest(env.router, http.MethodGet, "/api/admin/export?format=csv&year=2015", nil, cookie)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "sof_results_2015_")
		assert.Contains(t, w.Body.String(), "Brian Wecht")
	})

	t.Run("xlsx по умолчанию", func(t *testing.T) {
		w := performRequest(env.router, http.MethodGet, "/api/admin/export", nil, cookie)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
		assert.Equal(t, []byte("PK"), w.Body.Bytes()[:2])
	})

	t.Run("неизвестный формат", func(t *testing.T) {
		w := performRequest(env.router, http.MethodGet, "/api/admin/export?format=pdf", nil, cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{service.ErrInvalidInviteCode, http.StatusUnauthorized},
		{service.ErrPasswordTooShort, http.StatusUnprocessableEntity},
		{entity.ErrInvalidOutcomeLabel, http.StatusUnprocessableEntity},
		{service.ErrUnknownChartType, http.StatusUnprocessableEntity},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		handleError(c, "Test", tt.err)

		assert.Equal(t, tt.wantStatus, w.Code, tt.err.Error())
	}
}
