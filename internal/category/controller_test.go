package category_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/salonback/internal/category"
	"github.com/salonback/internal/model"
	"github.com/salonback/internal/supply"
	"github.com/salonback/pkg/inflight"
	"github.com/salonback/pkg/permit"
	"github.com/salonback/pkg/router"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.AutoMigrate(&model.Category{}, &model.Supply{}); err != nil {
		t.Fatal(err)
	}

	pass := func(c *fiber.Ctx) error { return c.Next() }
	mw := map[string]fiber.Handler{"auth": pass}
	for _, m := range permit.AllModules {
		for _, a := range permit.AllActions {
			mw[fmt.Sprintf("perm:%s:%s", m, a)] = pass
		}
	}

	ctrl := category.NewController(
		category.NewRepositoryWithDB(db),
		supply.NewRepositoryWithDB(db),
		inflight.New(),
	)

	app := fiber.New()
	router.Register(app, mw, ctrl)
	return app, db
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

func TestCreateAndDuplicateName(t *testing.T) {
	app, _ := setup(t)

	status, env := doJSON(t, app, http.MethodPost, "/categorias_insumos",
		category.SaveRequest{Nombre: "Esmaltes", Descripcion: "esmaltes de uñas"})
	if status != http.StatusOK || env.Code != 0 {
		t.Fatalf("crear: status=%d env=%+v", status, env)
	}

	// 不区分大小写与变音符号的重名
	status, env = doJSON(t, app, http.MethodPost, "/categorias_insumos",
		category.SaveRequest{Nombre: "esmaltés"})
	if status != http.StatusBadRequest {
		t.Fatalf("duplicado debe rechazarse: status=%d env=%+v", status, env)
	}

	var data struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Errors["nombre"] != "ya existe una categoría con ese nombre" {
		t.Fatalf("error de campo inesperado: %v", data.Errors)
	}
}

func TestCreateNameTooShort(t *testing.T) {
	app, _ := setup(t)

	status, env := doJSON(t, app, http.MethodPost, "/categorias_insumos",
		category.SaveRequest{Nombre: "AB"})
	if status != http.StatusBadRequest {
		t.Fatalf("nombre corto debe rechazarse: status=%d", status)
	}

	var data struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Errors["nombre"] != "el campo nombre debe tener al menos 3 caracteres" {
		t.Fatalf("mensaje: %v", data.Errors)
	}
}

// TestCambiarEstadoVetoedByActiveSupplies 有启用中关联耗材的类目
// 不能停用，响应点名数量。
func TestCambiarEstadoVetoedByActiveSupplies(t *testing.T) {
	app, db := setup(t)

	cat := model.Category{Nombre: "Esmaltes", Estado: model.EstadoActivo}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		sup := model.Supply{
			Nombre:      fmt.Sprintf("esmalte %d", i+1),
			CategoriaID: cat.ID,
			Estado:      model.EstadoActivo,
		}
		if err := db.Create(&sup).Error; err != nil {
			t.Fatal(err)
		}
	}
	inactivo := model.Supply{Nombre: "removedor", CategoriaID: cat.ID, Estado: model.EstadoInactivo}
	if err := db.Create(&inactivo).Error; err != nil {
		t.Fatal(err)
	}

	status, env := doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/categorias_insumos/%d/cambiar_estado", cat.ID), nil)
	if status != http.StatusConflict {
		t.Fatalf("veto esperado: status=%d env=%+v", status, env)
	}
	want := "no se puede completar la acción: la categoría Esmaltes tiene 3 insumo(s) activo(s) asociado(s)"
	if env.Message != want {
		t.Fatalf("mensaje = %q, want %q", env.Message, want)
	}

	// 类目保持启用
	var again model.Category
	if err := db.First(&again, cat.ID).Error; err != nil {
		t.Fatal(err)
	}
	if again.Estado != model.EstadoActivo {
		t.Fatalf("el veto no debe cambiar el estado: %s", again.Estado)
	}
}

func TestCambiarEstadoReactivate(t *testing.T) {
	app, db := setup(t)

	cat := model.Category{Nombre: "Limas", Estado: model.EstadoInactivo}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatal(err)
	}

	status, env := doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/categorias_insumos/%d/cambiar_estado", cat.ID), nil)
	if status != http.StatusOK {
		t.Fatalf("reactivar: status=%d env=%+v", status, env)
	}
	if env.Message != "categoría activada correctamente" {
		t.Fatalf("mensaje: %q", env.Message)
	}
}

// TestDeleteMissingIsSuccess 服务端已不存在的记录删除视为成功。
func TestDeleteMissingIsSuccess(t *testing.T) {
	app, _ := setup(t)

	status, env := doJSON(t, app, http.MethodDelete, "/categorias_insumos/9999", nil)
	if status != http.StatusOK {
		t.Fatalf("borrar inexistente debe ser éxito: status=%d", status)
	}
	if env.Message != "categoría eliminada correctamente" {
		t.Fatalf("mensaje: %q", env.Message)
	}
}

func TestDeleteVetoedBySupplies(t *testing.T) {
	app, db := setup(t)

	cat := model.Category{Nombre: "Algodón", Estado: model.EstadoActivo}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatal(err)
	}
	sup := model.Supply{Nombre: "algodón fino", CategoriaID: cat.ID, Estado: model.EstadoInactivo}
	if err := db.Create(&sup).Error; err != nil {
		t.Fatal(err)
	}

	// 即使耗材已停用也阻止删除
	status, _ := doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/categorias_insumos/%d", cat.ID), nil)
	if status != http.StatusConflict {
		t.Fatalf("delete con insumos debe vetarse: status=%d", status)
	}
}

func TestCheckInsumos(t *testing.T) {
	app, db := setup(t)

	cat := model.Category{Nombre: "Esmaltes", Estado: model.EstadoActivo}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatal(err)
	}
	sup := model.Supply{Nombre: "esmalte rojo", CategoriaID: cat.ID, Estado: model.EstadoActivo}
	if err := db.Create(&sup).Error; err != nil {
		t.Fatal(err)
	}

	status, env := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/categorias_insumos/%d/check_insumos", cat.ID), nil)
	if status != http.StatusOK {
		t.Fatalf("check: status=%d", status)
	}

	var data category.CheckInsumosResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.PuedeEliminar || data.InsumosInfo.Total != 1 || data.InsumosInfo.Activos != 1 {
		t.Fatalf("respuesta de check inesperada: %+v", data)
	}
	if data.CategoriaNombre != "Esmaltes" {
		t.Fatalf("nombre: %q", data.CategoriaNombre)
	}
}

func TestListFilterByStatusKeyword(t *testing.T) {
	app, db := setup(t)

	for i, estado := range []string{model.EstadoActivo, model.EstadoInactivo, model.EstadoActivo} {
		cat := model.Category{Nombre: fmt.Sprintf("categoria %d", i+1), Estado: estado}
		if err := db.Create(&cat).Error; err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/categorias_insumos?search=inactivo", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var page struct {
		Total int  `json:"total"`
		Empty bool `json:"empty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Empty {
		t.Fatalf("keyword inactivo debe filtrar exacto: %+v", page)
	}
}
