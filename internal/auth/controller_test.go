package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casbin/casbin/v3"
	casbinmodel "github.com/casbin/casbin/v3/model"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authctl "github.com/salonback/internal/auth"
	"github.com/salonback/internal/model"
	"github.com/salonback/internal/user"
	pkgauth "github.com/salonback/pkg/auth"
	"github.com/salonback/pkg/config"
	"github.com/salonback/pkg/middleware"
	"github.com/salonback/pkg/permit"
	"github.com/salonback/pkg/router"
)

const testModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*fiber.App, *gorm.DB, *casbin.Enforcer) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&model.Role{}, &model.User{}); err != nil {
		t.Fatal(err)
	}

	m, err := casbinmodel.NewModelFromString(testModel)
	if err != nil {
		t.Fatal(err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		t.Fatal(err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := permit.NewStoreWithClient(e, client)

	jwtManager := pkgauth.NewJWTManager(&config.JWTConfig{
		Secret: "clave-de-prueba",
		Issuer: "salonback-test",
		Expire: 3600,
	})

	mw := map[string]fiber.Handler{"auth": middleware.JWTAuth(jwtManager)}

	ctrl := authctl.NewController(user.NewRepositoryWithDB(db), jwtManager, store)

	app := fiber.New()
	router.Register(app, mw, ctrl)
	return app, db, e
}

func seedUser(t *testing.T, db *gorm.DB, codigo, password, estado string) model.User {
	t.Helper()

	rol := model.Role{Codigo: codigo, Nombre: codigo}
	if err := db.Create(&rol).Error; err != nil {
		t.Fatal(err)
	}
	hashed, err := pkgauth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	u := model.User{Username: "mariana", Password: hashed, Nombre: "Mariana",
		Email: "mariana@salon.local", RolID: rol.ID, Estado: estado}
	if err := db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, env
}

// TestLoginReturnsTokenAndSnapshot 登录响应携带令牌与按模块聚合的
// 权限表，令牌可用于后续受保护路由。
func TestLoginReturnsTokenAndSnapshot(t *testing.T) {
	app, db, e := setup(t)
	seedUser(t, db, "recepcionista", "secreta123", model.EstadoActivo)
	if _, err := e.AddPolicy("role:recepcionista", permit.ModuleClientes, permit.ActionCrear); err != nil {
		t.Fatal(err)
	}

	status, env := doJSON(t, app, http.MethodPost, "/auth/login", "",
		authctl.LoginRequest{Username: "mariana", Password: "secreta123"})
	if status != http.StatusOK {
		t.Fatalf("login: status=%d env=%+v", status, env)
	}

	var data authctl.LoginResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Token == "" {
		t.Fatalf("login sin token")
	}
	if data.Admin {
		t.Fatalf("recepcionista no es admin")
	}
	if acts := data.Permisos[permit.ModuleClientes]; len(acts) != 1 || acts[0] != permit.ActionCrear {
		t.Fatalf("permisos inesperados: %v", data.Permisos)
	}

	// 令牌访问受保护的profile
	status, env = doJSON(t, app, http.MethodGet, "/auth/profile", data.Token, nil)
	if status != http.StatusOK {
		t.Fatalf("profile con token: status=%d env=%+v", status, env)
	}
	var profile model.User
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatal(err)
	}
	if profile.Username != "mariana" {
		t.Fatalf("perfil inesperado: %+v", profile)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	app, db, _ := setup(t)
	seedUser(t, db, "recepcionista", "secreta123", model.EstadoActivo)

	status, env := doJSON(t, app, http.MethodPost, "/auth/login", "",
		authctl.LoginRequest{Username: "mariana", Password: "equivocada"})
	if status != http.StatusUnauthorized || env.Message != "usuario o contraseña incorrectos" {
		t.Fatalf("credenciales inválidas: status=%d msg=%q", status, env.Message)
	}

	// 不存在的用户收到相同的错误消息
	status, env = doJSON(t, app, http.MethodPost, "/auth/login", "",
		authctl.LoginRequest{Username: "fantasma", Password: "loquesea1"})
	if status != http.StatusUnauthorized || env.Message != "usuario o contraseña incorrectos" {
		t.Fatalf("usuario inexistente: status=%d msg=%q", status, env.Message)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	app, db, _ := setup(t)
	seedUser(t, db, "recepcionista", "secreta123", model.EstadoInactivo)

	status, env := doJSON(t, app, http.MethodPost, "/auth/login", "",
		authctl.LoginRequest{Username: "mariana", Password: "secreta123"})
	if status != http.StatusForbidden || env.Message != "el usuario está inactivo" {
		t.Fatalf("usuario inactivo: status=%d msg=%q", status, env.Message)
	}
}

func TestAdministradorLogin(t *testing.T) {
	app, db, _ := setup(t)
	seedUser(t, db, permit.RoleAdministrador, "secreta123", model.EstadoActivo)

	_, env := doJSON(t, app, http.MethodPost, "/auth/login", "",
		authctl.LoginRequest{Username: "mariana", Password: "secreta123"})

	var data authctl.LoginResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if !data.Admin {
		t.Fatalf("administrador debe marcarse admin")
	}
	if len(data.Permisos) != len(permit.AllModules) {
		t.Fatalf("administrador expone todos los módulos: %d", len(data.Permisos))
	}
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	app, _, _ := setup(t)

	status, _ := doJSON(t, app, http.MethodGet, "/auth/profile", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("sin token debe ser 401: status=%d", status)
	}
}
