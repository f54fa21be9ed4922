package service

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/syncwatch/server/internal/domain"
)

var RoomIdRule = []validation.Rule{
	validation.Required,
	validation.Match(regexp.MustCompile("^[A-Z0-9]{6}$")),
}

var MemberIdRule = []validation.Rule{
	validation.Required,
	validation.Length(1, 64),
}

var FileNameRule = []validation.Rule{
	validation.Required,
	validation.Length(1, 255),
}

var FileTypeRule = []validation.Rule{
	validation.Required,
	validation.In("video", "audio"),
}

var ActionRule = []validation.Rule{
	validation.Required,
	validation.In(
		string(domain.ActionLoadVideo),
		string(domain.ActionPlay),
		string(domain.ActionPause),
		string(domain.ActionSeek),
	),
}

var TimeRule = []validation.Rule{
	validation.Min(0.0),
}

var FileIndexRule = []validation.Rule{
	validation.Min(0),
}
