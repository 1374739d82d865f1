package server

import (
	"sync"

	"hear-me-out/internal/config"
	"hear-me-out/internal/game"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorOnce sync.Once

// registerValidators installs the request tags on gin's shared validator. The
// tags are registered once per process, so the limits of the first config win;
// the engine re-checks every value against its own config.
func registerValidators(cfg config.Config) {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			_, err := game.ValidateName(fl.Field().String(), cfg.MaxNameLength)
			return err == nil
		})
		_ = engine.RegisterValidation("invention", func(fl validator.FieldLevel) bool {
			return game.ValidateInvention(fl.Field().String(), cfg.MaxInventionLength) == nil
		})
		_ = engine.RegisterValidation("pitch", func(fl validator.FieldLevel) bool {
			return game.ValidatePitch(fl.Field().String(), cfg.MaxPitchLength) == nil
		})
		_ = engine.RegisterValidation("drawing", func(fl validator.FieldLevel) bool {
			return game.ValidateDrawing(fl.Field().String(), cfg.MaxDrawingBytes) == nil
		})
	})
}
