package dbl

import (
	"net/url"
	"strings"
)

// Badge is a small status badge image.
type Badge string

const (
	BadgeOwner   Badge = "owner"
	BadgeUpvotes Badge = "upvotes"
	BadgeServers Badge = "servers"
	BadgeStatus  Badge = "status"
	BadgeLibrary Badge = "lib"
)

// URL builds the badge image URL for bot.
func (b Badge) URL(bot BotID, showAvatar bool) string {
	u := DefaultBaseURL + "/widget/" + string(b) + "/" + bot.String() + ".svg"
	if !showAvatar {
		u += "?noavatar=true"
	}
	return u
}

// LargeWidget builds the URL of the large bot widget. Colours are hex
// values without the leading '#'.
type LargeWidget struct {
	params url.Values
}

// NewLargeWidget returns a large widget with default colours.
func NewLargeWidget() LargeWidget { return LargeWidget{} }

func (w LargeWidget) TopColor(c string) LargeWidget       { return w.with("topcolor", c) }
func (w LargeWidget) MiddleColor(c string) LargeWidget    { return w.with("middlecolor", c) }
func (w LargeWidget) UsernameColor(c string) LargeWidget  { return w.with("usernamecolor", c) }
func (w LargeWidget) CertifiedColor(c string) LargeWidget { return w.with("certifiedcolor", c) }
func (w LargeWidget) DataColor(c string) LargeWidget      { return w.with("datacolor", c) }
func (w LargeWidget) LabelColor(c string) LargeWidget     { return w.with("labelcolor", c) }
func (w LargeWidget) HighlightColor(c string) LargeWidget { return w.with("highlightcolor", c) }

// URL builds the widget URL for bot.
func (w LargeWidget) URL(bot BotID) string { return widgetURL(bot, w.params) }

func (w LargeWidget) with(key, color string) LargeWidget {
	return LargeWidget{params: withParam(w.params, key, color)}
}

// SmallWidget builds the URL of the small bot widget.
type SmallWidget struct {
	params url.Values
}

// NewSmallWidget returns a small widget with default colours.
func NewSmallWidget() SmallWidget { return SmallWidget{} }

func (w SmallWidget) AvatarBgColor(c string) SmallWidget  { return w.with("avatarbgcolor", c) }
func (w SmallWidget) LeftColor(c string) SmallWidget      { return w.with("leftcolor", c) }
func (w SmallWidget) RightColor(c string) SmallWidget     { return w.with("rightcolor", c) }
func (w SmallWidget) LeftTextColor(c string) SmallWidget  { return w.with("lefttextcolor", c) }
func (w SmallWidget) RightTextColor(c string) SmallWidget { return w.with("righttextcolor", c) }

// URL builds the widget URL for bot.
func (w SmallWidget) URL(bot BotID) string { return widgetURL(bot, w.params) }

func (w SmallWidget) with(key, color string) SmallWidget {
	return SmallWidget{params: withParam(w.params, key, color)}
}

func widgetURL(bot BotID, params url.Values) string {
	u := DefaultBaseURL + "/widget/" + bot.String() + ".svg"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func withParam(params url.Values, key, color string) url.Values {
	out := make(url.Values, len(params)+1)
	for k, v := range params {
		out[k] = v
	}
	out.Set(key, strings.TrimPrefix(strings.TrimSpace(color), "#"))
	return out
}
