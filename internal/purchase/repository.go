package purchase

import (
	"context"
	"fmt"

	"github.com/salonback/internal/model"
	"github.com/salonback/pkg/dal"
	"github.com/salonback/pkg/errors"
	"gorm.io/gorm"
)

// Repository 采购单仓储接口
type Repository interface {
	dal.Repository[model.Purchase]
	CreateWithStock(ctx context.Context, p *model.Purchase) error
	Anular(ctx context.Context, id int64, motivo string) (*model.Purchase, error)
}

type repository struct {
	*dal.BaseRepository[model.Purchase]
}

// NewRepository 创建采购单仓储
func NewRepository() Repository {
	return &repository{BaseRepository: dal.NewBaseRepository[model.Purchase]()}
}

// NewRepositoryWithDB 使用指定DB创建采购单仓储
func NewRepositoryWithDB(db *gorm.DB) Repository {
	return &repository{BaseRepository: dal.NewBaseRepositoryWithDB[model.Purchase](db)}
}

// CreateWithStock 在一个事务内写入采购单与明细, 增加库存并追加流水
func (r *repository) CreateWithStock(ctx context.Context, p *model.Purchase) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}

		for _, det := range p.Detalles {
			res := tx.Model(&model.Supply{}).
				Where("id = ?", det.InsumoID).
				UpdateColumn("cantidad", gorm.Expr("cantidad + ?", det.Cantidad))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("insumo %d no existe", det.InsumoID)
			}

			mov := &model.StockMovement{
				InsumoID:   det.InsumoID,
				Tipo:       model.MovimientoEntrada,
				Cantidad:   det.Cantidad,
				Referencia: fmt.Sprintf("compra:%d", p.ID),
				Motivo:     "compra registrada",
			}
			if err := tx.Create(mov).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Anular 作废采购单并回退库存. 任一耗材回退后库存为负时整体拒绝
func (r *repository) Anular(ctx context.Context, id int64, motivo string) (*model.Purchase, error) {
	var out *model.Purchase

	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		var p model.Purchase
		if err := tx.Preload("Detalles.Insumo").Preload("Proveedor").
			First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.NotFound("compra")
			}
			return err
		}

		if p.Anulada() {
			return errors.BadRequest("la compra ya está anulada")
		}

		for _, det := range p.Detalles {
			if det.Insumo == nil {
				return errors.Internal("insumo de la compra no disponible")
			}
			if det.Insumo.Cantidad-det.Cantidad < 0 {
				return errors.New(409, fmt.Sprintf(
					"no se puede anular la compra: el stock de %s quedaría negativo (%d disponible, %d a revertir)",
					det.Insumo.Nombre, det.Insumo.Cantidad, det.Cantidad))
			}
		}

		for _, det := range p.Detalles {
			if err := tx.Model(&model.Supply{}).
				Where("id = ?", det.InsumoID).
				UpdateColumn("cantidad", gorm.Expr("cantidad - ?", det.Cantidad)).Error; err != nil {
				return err
			}

			mov := &model.StockMovement{
				InsumoID:   det.InsumoID,
				Tipo:       model.MovimientoSalida,
				Cantidad:   det.Cantidad,
				Referencia: fmt.Sprintf("compra:%d", p.ID),
				Motivo:     "anulación de compra",
			}
			if err := tx.Create(mov).Error; err != nil {
				return err
			}
		}

		p.Estado = model.EstadoAnulada
		p.MotivoAnulacion = motivo
		if err := tx.Model(&model.Purchase{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"estado":           p.Estado,
				"motivo_anulacion": p.MotivoAnulacion,
			}).Error; err != nil {
			return err
		}

		out = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
