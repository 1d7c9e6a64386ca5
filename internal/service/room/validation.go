package room

import (
	"errors"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var RoomIdRule = []validation.Rule{
	validation.Required,
	validation.Length(1, 128),
}

var MemberIdRule = []validation.Rule{
	validation.Required,
	is.UUIDv4,
}

var PositionRule = []validation.Rule{
	validation.By(finite),
	validation.Min(0.0),
}

var MovieContextRule = []validation.Rule{
	validation.Length(0, 4000),
}

var ChatContentRule = []validation.Rule{
	validation.Required,
	validation.Length(1, 2000),
}

var ChatSenderRule = []validation.Rule{
	validation.Length(0, 64),
}

var RelationshipRule = []validation.Rule{
	validation.Length(0, 100),
}

func finite(value any) error {
	f, ok := value.(float64)
	if !ok {
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.New("must be a finite number")
	}

	return nil
}
