package bot

import (
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aquabot/internal/flow"
	"github.com/m3rciful/aquabot/internal/texts"
)

func (b *Bot) render(c tele.Context, out flow.Output) error {
	for _, reply := range out.Replies {
		var err error
		switch reply.Kind {
		case flow.ReplyText:
			err = c.Send(reply.Text)
		case flow.ReplyAskLocation:
			err = c.Send(reply.Text, locationKeyboard())
		case flow.ReplyAskContact:
			err = c.Send(reply.Text, contactKeyboard())
		case flow.ReplyCalendar:
			err = c.Send(reply.Text, calendarMarkup(reply.Page))
		case flow.ReplyEditCalendar:
			err = c.Edit(reply.Text, calendarMarkup(reply.Page))
		case flow.ReplyEditText:
			err = c.Edit(reply.Text)
		default:
			err = fmt.Errorf("bot: unknown reply kind %d", reply.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// calendarMarkup renders a calendar page as an inline keyboard. Disabled
// cells become inert placeholder buttons so the grid keeps its shape.
func calendarMarkup(page *flow.Page) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	rows := make([]tele.Row, 0, len(page.Weeks)+1)
	for _, week := range page.Weeks {
		row := make([]tele.Btn, 0, len(week))
		for _, cell := range week {
			if cell.Selectable {
				day := strconv.Itoa(cell.Day)
				row = append(row, markup.Data(day, cbDay, day))
			} else {
				row = append(row, markup.Data(" ", cbNoop))
			}
		}
		rows = append(rows, markup.Row(row...))
	}

	var nav []tele.Btn
	if page.PrevEnabled {
		nav = append(nav, markup.Data(texts.ButtonPrevMonth, cbNav, string(flow.NavPrev)))
	}
	nav = append(nav, markup.Data(texts.ButtonNextMonth, cbNav, string(flow.NavNext)))
	rows = append(rows, markup.Row(nav...))

	markup.Inline(rows...)
	return markup
}

func mainKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	markup.Reply(markup.Row(markup.Text(texts.ButtonNewOrder)))
	return markup
}

func locationKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	markup.Reply(markup.Row(markup.Location(texts.ButtonShareLocation)))
	return markup
}

func contactKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	markup.Reply(markup.Row(markup.Contact(texts.ButtonSharePhone)))
	return markup
}
