package backup

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// checkEntity reports an entity with a non-positive id, an id already seen
// in its table, or a missing required field.
func checkEntity(kind string, id int64, entity any, seen map[int64]bool) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s has invalid id %d", ErrInvalidFormat, kind, id)
	}
	if seen[id] {
		return fmt.Errorf("%w: duplicate %s id %d", ErrInvalidFormat, kind, id)
	}
	seen[id] = true

	if err := validate.Struct(entity); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s %d: %s is %s", ErrInvalidFormat, kind, id, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %s %d: %v", ErrInvalidFormat, kind, id, err)
	}
	return nil
}
