package stockdraw

import (
	"context"
	"fmt"

	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"github.com/salonback/pkg/errors"
	"gorm.io/gorm"
)

// Repository 领用单仓储接口
type Repository interface {
	dal.Repository[model.StockDraw]
	CreateWithStock(ctx context.Context, d *model.StockDraw) error
	Anular(ctx context.Context, id int64, motivo string) (*model.StockDraw, error)
}

type repository struct {
	*dal.BaseRepository[model.StockDraw]
}

// NewRepository 创建领用单仓储
func NewRepository() Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.StockDraw]()}
}

// NewRepositoryWithDB 使用指定DB创建领用单仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepositoryWithDB[model.StockDraw](db)}
}

// CreateWithStock 在一个事务内写入领用单, 扣减库存并追加流水.
// 任一耗材扣减后低于最小保留量时整体拒绝, 消息点名耗材与剩余量
func (r *repository) CreateWithStock(ctx context.Context, d *model.StockDraw) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		for _, det := range d.Detalles {
			var sup model.Supply
			if err := tx.First(&sup, "id = ?", det.InsumoID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errors.BadRequest(fmt.Sprintf("el insumo %d no existe", det.InsumoID))
				}
				return err
			}

			restante := sup.Cantidad - det.Cantidad
			if restante < MinRemaining {
				return errors.New(409, fmt.Sprintf(
					"no se puede registrar el abastecimiento: el insumo %s quedaría con %d unidades y el mínimo permitido es %d",
					sup.Nombre, restante, MinRemaining))
			}
		}

		if err := tx.Create(d).Error; err != nil {
			return err
		}

		for _, det := range d.Detalles {
			if err := tx.Model(&model.Supply{}).
				Where("id = ?", det.InsumoID).
				UpdateColumn("cantidad", gorm.Expr("cantidad - ?", det.Cantidad)).Error; err != nil {
				return err
			}

			mov := &model.StockMovement{
				InsumoID:   det.InsumoID,
				Tipo:       model.MovimientoSalida,
				Cantidad:   det.Cantidad,
				Referencia: fmt.Sprintf("abastecimiento:%d", d.ID),
				Motivo:     "abastecimiento registrado",
			}
			if err := tx.Create(mov).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Anular 作废领用单并恢复库存
func (r *repository) Anular(ctx context.Context, id int64, motivo string) (*model.StockDraw, error) {
	var out *model.StockDraw

	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		var d model.StockDraw
		if err := tx.Preload("Detalles.Insumo").Preload("Usuario").
			First(&d, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("abastecimiento")
			}
			return err
		}

		if d.Estado == model.EstadoAnulada {
			return errors.BadRequest("el abastecimiento ya está anulado")
		}

		for _, det := range d.Detalles {
			if err := tx.Model(&model.Supply{}).
				Where("id = ?", det.InsumoID).
				UpdateColumn("cantidad", gorm.Expr("cantidad + ?", det.Cantidad)).Error; err != nil {
				return err
			}

			mov := &model.StockMovement{
				InsumoID:   det.InsumoID,
				Tipo:       model.MovimientoEntrada,
				Cantidad:   det.Cantidad,
				Referencia: fmt.Sprintf("abastecimiento:%d", d.ID),
				Motivo:     "anulación de abastecimiento",
			}
			if err := tx.Create(mov).Error; err != nil {
				return err
			}
		}

		d.Estado = model.EstadoAnulada
		d.MotivoAnulacion = motivo
		if err := tx.Model(&model.StockDraw{}).Where("id = ?", d.ID).
			Updates(map[string]interface{}{
				"estado":           d.Estado,
				"motivo_anulacion": d.MotivoAnulacion,
			}).Error; err != nil {
			return err
		}

		out = &d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
