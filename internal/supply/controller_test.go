package supply_test

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
	if err := db.AutoMigrate(&model.Category{}, &model.Supply{}, &model.StockMovement{}); err != nil {
		t.Fatal(err)
	}

	pass := func(c *fiber.Ctx) error { return c.Next() }
	mw := map[string]fiber.Handler{"auth": pass}
	for _, m := range permit.AllModules {
		for _, a := range permit.AllActions {
			mw[fmt.Sprintf("perm:%s:%s", m, a)] = pass
		}
	}

	ctrl := supply.NewController(
		supply.NewRepositoryWithDB(db),
		category.NewRepositoryWithDB(db),
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

func seedCategory(t *testing.T, db *gorm.DB, estado string) model.Category {
	t.Helper()
	cat := model.Category{Nombre: "Esmaltes", Estado: estado}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatal(err)
	}
	return cat
}

// TestCreateStartsWithZeroStock 创建耗材时库存从0开始,
// 客户端提交的cantidad被忽略。
func TestCreateStartsWithZeroStock(t *testing.T) {
	app, db := setup(t)
	cat := seedCategory(t, db, model.EstadoActivo)

	status, env := doJSON(t, app, http.MethodPost, "/insumos", map[string]interface{}{
		"nombre":          "esmalte rojo",
		"categoria_id":    cat.ID,
		"precio_unitario": 12.5,
		"cantidad":        50,
	})
	if status != http.StatusOK {
		t.Fatalf("crear: status=%d env=%+v", status, env)
	}

	var created model.Supply
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	var stored model.Supply
	if err := db.First(&stored, created.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Cantidad != 0 {
		t.Fatalf("la cantidad inicial debe ser 0, fue %d", stored.Cantidad)
	}
	if stored.Estado != model.EstadoActivo {
		t.Fatalf("estado inicial: %q", stored.Estado)
	}
}

// TestUpdateDoesNotTouchStock 更新耗材不影响库存。
func TestUpdateDoesNotTouchStock(t *testing.T) {
	app, db := setup(t)
	cat := seedCategory(t, db, model.EstadoActivo)
	sup := model.Supply{Nombre: "esmalte rojo", CategoriaID: cat.ID,
		PrecioUnitario: 10, Cantidad: 8, Estado: model.EstadoActivo}
	if err := db.Create(&sup).Error; err != nil {
		t.Fatal(err)
	}

	status, env := doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/insumos/%d", sup.ID), map[string]interface{}{
			"nombre":          "esmalte rojo intenso",
			"categoria_id":    cat.ID,
			"precio_unitario": 15.0,
			"cantidad":        99,
		})
	if status != http.StatusOK {
		t.Fatalf("actualizar: status=%d env=%+v", status, env)
	}

	var stored model.Supply
	if err := db.First(&stored, sup.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Cantidad != 8 {
		t.Fatalf("la cantidad no debe cambiar por edición: %d", stored.Cantidad)
	}
	if stored.Nombre != "esmalte rojo intenso" || stored.PrecioUnitario != 15.0 {
		t.Fatalf("los demás campos sí deben actualizarse: %+v", stored)
	}
}

func TestCreateRejectsInactiveCategory(t *testing.T) {
	app, db := setup(t)
	cat := seedCategory(t, db, model.EstadoInactivo)

	status, env := doJSON(t, app, http.MethodPost, "/insumos",
		supply.SaveRequest{Nombre: "esmalte azul", CategoriaID: cat.ID, PrecioUnitario: 9})
	if status != http.StatusBadRequest {
		t.Fatalf("categoría inactiva debe rechazarse: status=%d", status)
	}

	var data struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Errors["categoria_id"] != "la categoría seleccionada está inactiva" {
		t.Fatalf("error de campo inesperado: %v", data.Errors)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	app, db := setup(t)
	cat := seedCategory(t, db, model.EstadoActivo)
	sup := model.Supply{Nombre: "Algodon", CategoriaID: cat.ID, Estado: model.EstadoActivo}
	if err := db.Create(&sup).Error; err != nil {
		t.Fatal(err)
	}

	// 不区分变音符号的重名
	status, env := doJSON(t, app, http.MethodPost, "/insumos",
		supply.SaveRequest{Nombre: "algodón", CategoriaID: cat.ID, PrecioUnitario: 3})
	if status != http.StatusBadRequest {
		t.Fatalf("duplicado debe rechazarse: status=%d", status)
	}

	var data struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Errors["nombre"] != "ya existe un insumo con ese nombre" {
		t.Fatalf("error de campo inesperado: %v", data.Errors)
	}
}

// TestDeleteVetoedByMovimientos 有库存流水的耗材不可删除。
func TestDeleteVetoedByMovimientos(t *testing.T) {
	app, db := setup(t)
	cat := seedCategory(t, db, model.EstadoActivo)
	sup := model.Supply{Nombre: "esmalte rojo", CategoriaID: cat.ID,
		Cantidad: 5, Estado: model.EstadoActivo}
	if err := db.Create(&sup).Error; err != nil {
		t.Fatal(err)
	}
	mov := model.StockMovement{InsumoID: sup.ID, Tipo: model.MovimientoEntrada,
		Cantidad: 5, Referencia: "compra:1", Motivo: "compra registrada"}
	if err := db.Create(&mov).Error; err != nil {
		t.Fatal(err)
	}

	status, env := doJSON(t, app, http.MethodDelete,
		fmt.Sprintf("/insumos/%d", sup.ID), nil)
	if status != http.StatusConflict {
		t.Fatalf("veto esperado: status=%d env=%+v", status, env)
	}
	want := "no se puede completar la acción: el insumo esmalte rojo tiene 1 movimiento(s) de stock asociado(s)"
	if env.Message != want {
		t.Fatalf("mensaje = %q, want %q", env.Message, want)
	}

	var again model.Supply
	if err := db.First(&again, sup.ID).Error; err != nil {
		t.Fatalf("el veto no debe borrar el registro: %v", err)
	}
}

func TestDeleteMissingIsSuccess(t *testing.T) {
	app, _ := setup(t)

	status, env := doJSON(t, app, http.MethodDelete, "/insumos/9999", nil)
	if status != http.StatusOK || env.Message != "insumo eliminado correctamente" {
		t.Fatalf("borrar inexistente debe ser éxito: status=%d msg=%q", status, env.Message)
	}
}
