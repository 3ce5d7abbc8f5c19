package api

import (
	"alcyxob/fitness-schedule/internal/domain"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the schedule-specific binding tags to gin's validator.
//
//	calendardate  any input domain.ParseDate accepts
//	weekday       a weekday key or one of its aliases
//	mealslot      a meal slot or one of its aliases
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseDate(fl.Field().String(), time.UTC)
			return err == nil
		})
		_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseWeekday(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("mealslot", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseMealSlot(fl.Field().String())
			return err == nil
		})
	})
}
