package permit

import "testing"

func recepcionSnapshot() *Snapshot {
	return NewSnapshot("recepcionista", false, []Claim{
		{Module: ModuleClientes, Action: ActionCrear},
		{Module: ModuleClientes, Action: ActionEditar},
		{Module: ModuleServicios, Action: ActionVerDetalles},
	})
}

// TestNilSnapshotFailsClosed 未加载快照时所有判定为否。
func TestNilSnapshotFailsClosed(t *testing.T) {
	var s *Snapshot

	if s.IsAdministrator() {
		t.Fatalf("nil no es administrador")
	}
	if s.CanAccessModule(ModuleClientes) {
		t.Fatalf("nil no accede a módulos")
	}
	if s.Allows(ModuleClientes, ActionCrear) {
		t.Fatalf("nil no autoriza acciones")
	}

	d := s.Button(ButtonProps{Module: ModuleClientes, Action: ActionCrear})
	if !d.Render || !d.Disabled {
		t.Fatalf("nil: el control debe renderizarse deshabilitado, obtuvo %+v", d)
	}
}

// TestAdministratorOverridesEverything 管理员对所有模块/动作恒真，
// 无需持有任何claim。
func TestAdministratorOverridesEverything(t *testing.T) {
	s := NewSnapshot(RoleAdministrador, true, nil)

	if !s.IsAdministrator() {
		t.Fatalf("debe ser administrador")
	}
	for _, m := range AllModules {
		for _, a := range AllActions {
			if !s.Allows(m, a) {
				t.Fatalf("administrador debe autorizar %s/%s", m, a)
			}
		}
	}

	mods := s.Modules()
	if len(mods) != len(AllModules) {
		t.Fatalf("administrador expone todos los módulos: %d", len(mods))
	}
	if len(mods[ModuleCompras]) != len(AllActions) {
		t.Fatalf("administrador expone todas las acciones")
	}
}

func TestClaimChecks(t *testing.T) {
	s := recepcionSnapshot()

	if !s.Allows(ModuleClientes, ActionCrear) {
		t.Fatalf("claim concedido debe autorizar")
	}
	if s.Allows(ModuleClientes, ActionEliminar) {
		t.Fatalf("acción no concedida debe fallar")
	}
	if s.Allows(ModuleCompras, ActionVerDetalles) {
		t.Fatalf("módulo sin claims debe fallar")
	}
	if !s.CanAccessModule(ModuleServicios) {
		t.Fatalf("módulo con algún claim es accesible")
	}
}

// TestButtonTooltipPrecedence 拒绝渲染tooltip时：模块级拒绝的消息
// 优先于动作级。
func TestButtonTooltipPrecedence(t *testing.T) {
	s := recepcionSnapshot()

	// 模块可访问, 动作缺失 → 动作级消息
	d := s.Button(ButtonProps{Module: ModuleClientes, Action: ActionEliminar})
	if !d.Render || !d.Disabled {
		t.Fatalf("sin permiso visible: deshabilitado, obtuvo %+v", d)
	}
	if d.Tooltip != "no tiene permiso para eliminar en clientes" {
		t.Fatalf("tooltip de acción inesperado: %q", d.Tooltip)
	}

	// 模块完全不可访问 → 模块级消息
	d = s.Button(ButtonProps{Module: ModuleCompras, Action: ActionEliminar})
	if d.Tooltip != "no tiene acceso al módulo compras" {
		t.Fatalf("tooltip de módulo inesperado: %q", d.Tooltip)
	}
}

func TestButtonHiddenAndExternalDisable(t *testing.T) {
	s := recepcionSnapshot()

	d := s.Button(ButtonProps{Module: ModuleCompras, Action: ActionCrear, Hidden: true})
	if d.Render {
		t.Fatalf("hidden sin permiso: no renderizar")
	}

	d = s.Button(ButtonProps{
		Module:   ModuleClientes,
		Action:   ActionCrear,
		Disabled: true,
		Tooltip:  "registro bloqueado",
	})
	if !d.Render || !d.Disabled || d.Tooltip != "registro bloqueado" {
		t.Fatalf("con permiso se respeta el disabled externo: %+v", d)
	}
}

func TestWrapper(t *testing.T) {
	s := recepcionSnapshot()

	d := s.Wrapper(WrapperProps{Module: ModuleClientes, Action: ActionEditar})
	if !d.ShowContent || d.ShowFallback {
		t.Fatalf("con permiso se muestra el contenido: %+v", d)
	}

	d = s.Wrapper(WrapperProps{Module: ModuleCompras, Action: ActionEditar, Fallback: true})
	if d.ShowContent || !d.ShowFallback {
		t.Fatalf("sin permiso con fallback: %+v", d)
	}

	d = s.Wrapper(WrapperProps{Module: ModuleCompras, Action: ActionEditar})
	if d.ShowContent || d.ShowFallback {
		t.Fatalf("sin permiso ni fallback: nada se renderiza: %+v", d)
	}
}
