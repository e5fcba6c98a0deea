package service_test

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

	"github.com/salonback/internal/model"
	"github.com/salonback/internal/service"
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
	if err := db.AutoMigrate(&model.Service{}); err != nil {
		t.Fatal(err)
	}

	pass := func(c *fiber.Ctx) error { return c.Next() }
	mw := map[string]fiber.Handler{"auth": pass}
	for _, m := range permit.AllModules {
		for _, a := range permit.AllActions {
			mw[fmt.Sprintf("perm:%s:%s", m, a)] = pass
		}
	}

	ctrl := service.NewController(service.NewRepositoryWithDB(db), inflight.New())

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

func fieldErrors(t *testing.T, env envelope) map[string]string {
	t.Helper()
	var data struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	return data.Errors
}

// TestCreateNumericBounds precio 必须为正, duración 限定在 5..480 分钟。
func TestCreateNumericBounds(t *testing.T) {
	app, _ := setup(t)

	status, env := doJSON(t, app, http.MethodPost, "/servicios",
		service.SaveRequest{Nombre: "Manicure", Precio: 0, Duracion: 30})
	if status != http.StatusBadRequest {
		t.Fatalf("precio 0 debe rechazarse: status=%d", status)
	}
	if msg := fieldErrors(t, env)["precio"]; msg != "el campo precio debe ser mayor o igual a 0.01" {
		t.Fatalf("mensaje de precio: %q", msg)
	}

	status, env = doJSON(t, app, http.MethodPost, "/servicios",
		service.SaveRequest{Nombre: "Manicure", Precio: 25000, Duracion: 500})
	if status != http.StatusBadRequest {
		t.Fatalf("duración excesiva debe rechazarse: status=%d", status)
	}
	if msg := fieldErrors(t, env)["duracion"]; msg != "el campo duración debe ser menor o igual a 480" {
		t.Fatalf("mensaje de duración: %q", msg)
	}
}

func TestCreateAndDuplicateName(t *testing.T) {
	app, _ := setup(t)

	status, env := doJSON(t, app, http.MethodPost, "/servicios",
		service.SaveRequest{Nombre: "Manicure Clásico", Precio: 25000, Duracion: 45})
	if status != http.StatusOK || env.Code != 0 {
		t.Fatalf("crear: status=%d env=%+v", status, env)
	}

	// 不区分大小写与变音符号的重名
	status, env = doJSON(t, app, http.MethodPost, "/servicios",
		service.SaveRequest{Nombre: "manicure clasico", Precio: 30000, Duracion: 60})
	if status != http.StatusBadRequest {
		t.Fatalf("duplicado debe rechazarse: status=%d", status)
	}
	if msg := fieldErrors(t, env)["nombre"]; msg != "ya existe un servicio con ese nombre" {
		t.Fatalf("error de campo inesperado: %q", msg)
	}
}

func TestCambiarEstadoToggle(t *testing.T) {
	app, db := setup(t)
	svc := model.Service{Nombre: "Pedicure", Precio: 35000, Duracion: 60, Estado: model.EstadoActivo}
	if err := db.Create(&svc).Error; err != nil {
		t.Fatal(err)
	}

	status, env := doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/servicios/%d/cambiar_estado", svc.ID), nil)
	if status != http.StatusOK || env.Message != "servicio desactivado correctamente" {
		t.Fatalf("desactivar: status=%d msg=%q", status, env.Message)
	}

	status, env = doJSON(t, app, http.MethodPatch,
		fmt.Sprintf("/servicios/%d/cambiar_estado", svc.ID), nil)
	if status != http.StatusOK || env.Message != "servicio activado correctamente" {
		t.Fatalf("reactivar: status=%d msg=%q", status, env.Message)
	}
}

func TestDeleteMissingIsSuccess(t *testing.T) {
	app, _ := setup(t)

	status, env := doJSON(t, app, http.MethodDelete, "/servicios/9999", nil)
	if status != http.StatusOK || env.Message != "servicio eliminado correctamente" {
		t.Fatalf("borrar inexistente debe ser éxito: status=%d msg=%q", status, env.Message)
	}
}

// TestListSortByPrecioNumeric precio 按数值排序, 不按字典序。
func TestListSortByPrecioNumeric(t *testing.T) {
	app, db := setup(t)
	for _, svc := range []model.Service{
		{Nombre: "Manicure Spa", Precio: 100, Duracion: 60, Estado: model.EstadoActivo},
		{Nombre: "Retoque", Precio: 25, Duracion: 15, Estado: model.EstadoActivo},
		{Nombre: "Esmaltado", Precio: 30, Duracion: 30, Estado: model.EstadoActivo},
	} {
		if err := db.Create(&svc).Error; err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/servicios?sortKey=precio", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var page struct {
		Data []model.Service `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if len(page.Data) != 3 {
		t.Fatalf("items = %d", len(page.Data))
	}
	if page.Data[0].Precio != 25 || page.Data[1].Precio != 30 || page.Data[2].Precio != 100 {
		t.Fatalf("orden numérico esperado 25,30,100: %v, %v, %v",
			page.Data[0].Precio, page.Data[1].Precio, page.Data[2].Precio)
	}
}
