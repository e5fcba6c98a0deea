package permit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/redis/go-redis/v9"
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

func newTestStore(t *testing.T) (*Store, *casbin.Enforcer) {
	t.Helper()

	m, err := model.NewModelFromString(testModel)
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

	return NewStoreWithClient(e, client), e
}

func TestStoreBuildFromPolicies(t *testing.T) {
	st, e := newTestStore(t)
	if _, err := e.AddPolicy("role:recepcionista", ModuleClientes, ActionCrear); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddPolicy("role:recepcionista", ModuleClientes, ActionVerDetalles); err != nil {
		t.Fatal(err)
	}

	snap, err := st.Get(context.Background(), "recepcionista")
	if err != nil {
		t.Fatal(err)
	}
	if snap.IsAdministrator() {
		t.Fatalf("recepcionista no es administrador")
	}
	if !snap.Allows(ModuleClientes, ActionCrear) {
		t.Fatalf("claim de política casbin debe autorizar")
	}
	if snap.Allows(ModuleClientes, ActionEliminar) {
		t.Fatalf("acción sin política debe fallar")
	}
}

// TestStoreAdminWithoutPolicies 管理员快照不依赖任何casbin策略。
func TestStoreAdminWithoutPolicies(t *testing.T) {
	st, _ := newTestStore(t)

	snap, err := st.Get(context.Background(), RoleAdministrador)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.IsAdministrator() {
		t.Fatalf("rol administrador produce snapshot admin")
	}
	if !snap.Allows(ModuleUsuarios, ActionEliminar) {
		t.Fatalf("administrador autoriza sin políticas")
	}
}

// TestStoreInvalidateRebuilds 角色策略变更后必须 Invalidate，
// 否则继续命中缓存的旧快照。
func TestStoreInvalidateRebuilds(t *testing.T) {
	st, e := newTestStore(t)
	ctx := context.Background()

	snap, err := st.Get(ctx, "estilista")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Allows(ModuleServicios, ActionEditar) {
		t.Fatalf("sin políticas nada se autoriza")
	}

	if _, err := e.AddPolicy("role:estilista", ModuleServicios, ActionEditar); err != nil {
		t.Fatal(err)
	}

	// 快照缓存仍在，变更尚不可见
	snap, err = st.Get(ctx, "estilista")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Allows(ModuleServicios, ActionEditar) {
		t.Fatalf("sin invalidar debe servirse el snapshot cacheado")
	}

	if err := st.Invalidate(ctx, "estilista"); err != nil {
		t.Fatal(err)
	}

	snap, err = st.Get(ctx, "estilista")
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Allows(ModuleServicios, ActionEditar) {
		t.Fatalf("tras invalidar se reconstruye con la nueva política")
	}
}
