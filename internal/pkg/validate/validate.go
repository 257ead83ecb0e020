package validate

import (
	"fmt"
	"strings"

	"github.com/capstone-api/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Custom tags are registered in
// init() before the first call to Struct.
var v = validator.New()

func init() {
	_ = v.RegisterValidation("notiftype", func(fl validator.FieldLevel) bool {
		switch domain.NotificationType(fl.Field().String()) {
		case domain.NotificationTypeSystem, domain.NotificationTypeProject, domain.NotificationTypeDocument,
			domain.NotificationTypeMeeting, domain.NotificationTypeTask, domain.NotificationTypeDefect,
			domain.NotificationTypeTeam, domain.NotificationTypeOther:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return domain.Priority(fl.Field().String()).Rank() > 0
	})
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}
	return nil
}
