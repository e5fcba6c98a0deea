package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casbin/casbin/v3"
	casbinmodel "github.com/casbin/casbin/v3/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/salonback/internal/model"
	"github.com/salonback/internal/user"
	"github.com/salonback/pkg/auth"
	"github.com/salonback/pkg/inflight"
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

// fakeAgenda 以固定响应模拟预约服务
type fakeAgenda struct {
	citas []user.Cita
	err   error
}

func (f *fakeAgenda) FetchList(path string, dest interface{}) error {
	if f.err != nil {
		return f.err
	}
	data, err := json.Marshal(f.citas)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func setup(t *testing.T, agenda user.AgendaAPI) (*fiber.App, *gorm.DB, *permit.Store, *casbin.Enforcer) {
	t.Helper()

	// Con ":memory:" cada conexión del pool sería una base distinta; usar caché compartida por test.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
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
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		t.Fatal(err)
	}
	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		t.Fatal(err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := permit.NewStoreWithClient(e, client)

	pass := func(c *fiber.Ctx) error { return c.Next() }
	mw := map[string]fiber.Handler{"auth": pass}
	for _, mod := range permit.AllModules {
		for _, a := range permit.AllActions {
			mw[fmt.Sprintf("perm:%s:%s", mod, a)] = pass
		}
	}

	ctrl := user.NewController(
		user.NewRepositoryWithDB(db),
		store,
		auth.NewCasbinServiceWith(e),
		agenda,
		inflight.New(),
	)

	app := fiber.New()
	router.Register(app, mw, ctrl)
	return app, db, store, e
}

func seedUser(t *testing.T, db *gorm.DB, codigo string) model.User {
	t.Helper()

	rol := model.Role{Codigo: codigo, Nombre: codigo}
	if err := db.Create(&rol).Error; err != nil {
		t.Fatal(err)
	}
	u := model.User{Username: "mariana", Nombre: "Mariana",
		Email: "mariana@salon.local", RolID: rol.ID, Estado: model.EstadoActivo}
	if err := db.Create(&u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

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

// TestDeactivateVetoedByPendingCitas 预约服务报告未完成预约时
// 禁止停用，消息点名数量。
func TestDeactivateVetoedByPendingCitas(t *testing.T) {
	agenda := &fakeAgenda{citas: []user.Cita{
		{ID: 1, Estado: "pendiente"},
		{ID: 2, Estado: "pendiente"},
	}}
	app, db, _, _ := setup(t, agenda)
	u := seedUser(t, db, "estilista")

	status, env := doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/usuarios/%d/cambiar_estado", u.ID), nil)
	if status != http.StatusConflict {
		t.Fatalf("citas pendientes deben vetar: status=%d env=%+v", status, env)
	}
	want := "no se puede completar la acción: el usuario Mariana tiene 2 cita(s) pendiente(s) asociado(s)"
	if env.Message != want {
		t.Fatalf("mensaje = %q, want %q", env.Message, want)
	}

	var again model.User
	if err := db.First(&again, u.ID).Error; err != nil {
		t.Fatal(err)
	}
	if again.Estado != model.EstadoActivo {
		t.Fatalf("el veto no debe cambiar el estado")
	}
}

// TestDeactivateConservativeOnAgendaError 预约服务不可达时保守拒绝停用。
func TestDeactivateConservativeOnAgendaError(t *testing.T) {
	agenda := &fakeAgenda{err: errors.New("connection refused")}
	app, db, _, _ := setup(t, agenda)
	u := seedUser(t, db, "estilista")

	status, env := doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/usuarios/%d/cambiar_estado", u.ID), nil)
	if status != http.StatusInternalServerError {
		t.Fatalf("fallo del servicio debe rechazar: status=%d", status)
	}
	if env.Message != "no se pudieron verificar las citas asociadas. Contacte al administrador" {
		t.Fatalf("mensaje: %q", env.Message)
	}
}

func TestDeactivateWithoutCitas(t *testing.T) {
	agenda := &fakeAgenda{}
	app, db, _, _ := setup(t, agenda)
	u := seedUser(t, db, "estilista")

	status, env := doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/usuarios/%d/cambiar_estado", u.ID), nil)
	if status != http.StatusOK || env.Message != "usuario desactivado correctamente" {
		t.Fatalf("desactivar sin citas: status=%d msg=%q", status, env.Message)
	}
}

func TestVerificarCitas(t *testing.T) {
	agenda := &fakeAgenda{citas: []user.Cita{{ID: 9, Estado: "pendiente"}}}
	app, db, _, _ := setup(t, agenda)
	u := seedUser(t, db, "estilista")

	status, env := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/usuarios/%d/verificar_citas", u.ID), nil)
	if status != http.StatusOK {
		t.Fatalf("verificar: status=%d", status)
	}

	var data user.VerificarCitasResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.PuedeDesactivar || data.CitasPendientes != 1 || data.Usuario != "Mariana" {
		t.Fatalf("respuesta inesperada: %+v", data)
	}
}

// TestSetRoleClaimsAndSnapshot 保存角色权限后快照失效并反映新能力。
func TestSetRoleClaimsAndSnapshot(t *testing.T) {
	app, db, store, _ := setup(t, &fakeAgenda{})
	seedUser(t, db, "recepcionista")
	ctx := context.Background()

	// 先构建空快照使其进入缓存
	snap, err := store.Get(ctx, "recepcionista")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Allows(permit.ModuleClientes, permit.ActionCrear) {
		t.Fatalf("sin permisos configurados nada se autoriza")
	}

	status, env := doJSON(t, app, http.MethodPut, "/usuarios/roles/recepcionista/permisos",
		user.SetClaimsRequest{Claims: []user.ClaimRequest{
			{Module: permit.ModuleClientes, Action: permit.ActionCrear},
			{Module: permit.ModuleClientes, Action: permit.ActionVerDetalles},
		}})
	if status != http.StatusOK {
		t.Fatalf("guardar permisos: status=%d env=%+v", status, env)
	}

	snap, err = store.Get(ctx, "recepcionista")
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Allows(permit.ModuleClientes, permit.ActionCrear) {
		t.Fatalf("el snapshot reconstruido debe reflejar los nuevos permisos")
	}

	// 读取端点返回同一能力表
	status, env = doJSON(t, app, http.MethodGet, "/usuarios/roles/recepcionista/permisos", nil)
	if status != http.StatusOK {
		t.Fatalf("leer permisos: status=%d", status)
	}
	var claims []user.ClaimRequest
	if err := json.Unmarshal(env.Data, &claims); err != nil {
		t.Fatal(err)
	}
	if len(claims) != 2 {
		t.Fatalf("claims = %v", claims)
	}
}

// TestUpdateRoleChangeInvalidatesSnapshots 更新用户角色后新旧角色的快照缓存立即失效。
func TestUpdateRoleChangeInvalidatesSnapshots(t *testing.T) {
	app, db, store, e := setup(t, &fakeAgenda{})
	u := seedUser(t, db, "estilista")
	nuevo := model.Role{Codigo: "recepcionista", Nombre: "Recepcionista"}
	if err := db.Create(&nuevo).Error; err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// 预热旧角色的空快照
	snap, err := store.Get(ctx, "estilista")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Allows(permit.ModuleClientes, permit.ActionCrear) {
		t.Fatalf("sin permisos configurados nada se autoriza")
	}

	// 缓存之后授予的权限, 快照失效前不可见
	if _, err := e.AddPolicy("role:estilista", permit.ModuleClientes, permit.ActionCrear); err != nil {
		t.Fatal(err)
	}
	snap, err = store.Get(ctx, "estilista")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Allows(permit.ModuleClientes, permit.ActionCrear) {
		t.Fatalf("el snapshot en caché no debe ver el cambio todavía")
	}

	// 变更角色触发失效
	status, env := doJSON(t, app, http.MethodPut, fmt.Sprintf("/usuarios/%d", u.ID),
		user.UpdateRequest{
			Username: "mariana", Nombre: "Mariana",
			Email: "mariana@salon.local", RolID: nuevo.ID,
		})
	if status != http.StatusOK {
		t.Fatalf("actualizar usuario: status=%d env=%+v", status, env)
	}

	snap, err = store.Get(ctx, "estilista")
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Allows(permit.ModuleClientes, permit.ActionCrear) {
		t.Fatalf("el snapshot del rol anterior debe reconstruirse tras el cambio de rol")
	}
}

func TestSetRoleClaimsRejectsAdministrator(t *testing.T) {
	app, _, _, _ := setup(t, &fakeAgenda{})

	status, env := doJSON(t, app, http.MethodPut,
		"/usuarios/roles/administrador/permisos",
		user.SetClaimsRequest{Claims: nil})
	if status != http.StatusBadRequest || env.Message != "el rol administrador no es configurable" {
		t.Fatalf("administrador no configurable: status=%d msg=%q", status, env.Message)
	}
}

func TestSetRoleClaimsRejectsUnknownClaim(t *testing.T) {
	app, _, _, _ := setup(t, &fakeAgenda{})

	status, _ := doJSON(t, app, http.MethodPut, "/usuarios/roles/estilista/permisos",
		user.SetClaimsRequest{Claims: []user.ClaimRequest{{Module: "agenda", Action: "crear"}}})
	if status != http.StatusBadRequest {
		t.Fatalf("permiso fuera del vocabulario debe rechazarse: status=%d", status)
	}
}

func TestCreateValidation(t *testing.T) {
	app, db, _, _ := setup(t, &fakeAgenda{})
	rol := model.Role{Codigo: "estilista", Nombre: "Estilista"}
	if err := db.Create(&rol).Error; err != nil {
		t.Fatal(err)
	}

	// contraseña corta
	status, env := doJSON(t, app, http.MethodPost, "/usuarios", user.CreateRequest{
		Username: "nueva", Password: "corta", Nombre: "Nueva",
		Email: "nueva@salon.local", RolID: rol.ID,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("contraseña corta debe rechazarse: status=%d env=%+v", status, env)
	}

	// alta válida
	status, env = doJSON(t, app, http.MethodPost, "/usuarios", user.CreateRequest{
		Username: "nueva", Password: "secreta123", Nombre: "Nueva",
		Email: "nueva@salon.local", RolID: rol.ID,
	})
	if status != http.StatusOK {
		t.Fatalf("alta válida: status=%d env=%+v", status, env)
	}

	var created model.User
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	var stored model.User
	if err := db.First(&stored, created.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Password == "secreta123" || stored.Password == "" {
		t.Fatalf("la contraseña debe guardarse con hash")
	}
	if !auth.CheckPassword(stored.Password, "secreta123") {
		t.Fatalf("el hash guardado no verifica la contraseña original")
	}
}
