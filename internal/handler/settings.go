package handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/artelier/promptforge/internal/backend"
	"github.com/artelier/promptforge/internal/domain"
	"github.com/artelier/promptforge/internal/middleware"
	tg "github.com/artelier/promptforge/internal/telegram"
	"github.com/artelier/promptforge/internal/wizard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Visual settings dialog. Option names can exceed Telegram's 64-byte
// callback limit, so picks are addressed by field key plus index into the
// sorted option list.
var settingsFields = []struct {
	key   string
	label string
	get   func(domain.VisualSettings) string
	set   func(*domain.VisualSettings, string)
}{
	{"palette", "🎨 Color palette",
		func(v domain.VisualSettings) string { return v.ColorPalette },
		func(v *domain.VisualSettings, s string) { v.ColorPalette = s }},
	{"aspect", "📐 Aspect ratio",
		func(v domain.VisualSettings) string { return v.AspectRatio },
		func(v *domain.VisualSettings, s string) { v.AspectRatio = s }},
	{"camera", "📷 Camera",
		func(v domain.VisualSettings) string { return v.CameraSettings },
		func(v *domain.VisualSettings, s string) { v.CameraSettings = s }},
	{"purpose", "🎯 Purpose",
		func(v domain.VisualSettings) string { return v.ImagePurpose },
		func(v *domain.VisualSettings, s string) { v.ImagePurpose = s }},
}

// describeSettings renders the non-empty fields as a short inline summary.
func describeSettings(v domain.VisualSettings) string {
	var parts []string
	for _, f := range settingsFields {
		if val := f.get(v); val != "" {
			parts = append(parts, val)
		}
	}
	return strings.Join(parts, ", ")
}

// optionsFor returns the sorted option names for one field.
func optionsFor(opts *backend.VisualOptions, key string) []string {
	var m map[string]any
	switch key {
	case "palette":
		m = opts.ColorPalettes
	case "aspect":
		m = opts.AspectRatios
	case "camera":
		m = opts.CameraSettings
	case "purpose":
		m = opts.ImagePurposes
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Handler) handleSettings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendSettingsRoot(ctx, b, update.Message.Chat.ID, 0)
}

// sendSettingsRoot renders the dialog's main view: the four fields with
// their current draft values.
func (h *Handler) sendSettingsRoot(ctx context.Context, b *bot.Bot, chatID int64, messageID int) {
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("🎛 *Visual settings*\n\nAll four are optional; empty fields are simply left out.\n\n")
	var rows [][]models.InlineKeyboardButton
	for _, f := range settingsFields {
		val := f.get(st.Draft)
		if val == "" {
			val = "—"
		}
		fmt.Fprintf(&sb, "%s: %s\n", f.label, val)
		rows = append(rows, tg.ButtonRow(tg.InlineButton(f.label, "vs_menu_"+f.key)))
	}
	rows = append(rows, tg.ButtonRow(
		tg.InlineButton("🧹 Clear all", "vs_clear"),
		tg.InlineButton("💾 Save", "vs_save"),
	))

	if messageID != 0 {
		tg.EditLongMessage(ctx, b, chatID, messageID, sb.String(), tg.InlineKeyboard(rows...))
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: tg.InlineKeyboard(rows...),
	})
}

func (h *Handler) handleSettingsMenu(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}
	key := strings.TrimPrefix(update.CallbackQuery.Data, "vs_menu_")

	opts, err := h.store.VisualOptions(ctx)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}

	var label, current string
	for _, f := range settingsFields {
		if f.key == key {
			label, current = f.label, f.get(st.Draft)
		}
	}

	var rows [][]models.InlineKeyboardButton
	for i, name := range optionsFor(opts, key) {
		text := name
		if name == current {
			text = "✅ " + name
		}
		rows = append(rows, tg.ButtonRow(tg.InlineButton(text, fmt.Sprintf("vs_set_%s_%d", key, i))))
	}
	rows = append(rows, tg.ButtonRow(tg.InlineButton("⬅️ Back", "vs_back")))

	tg.EditLongMessage(ctx, b, chatID, messageID,
		label+"\n\nPick one, or go back to leave it unset.",
		tg.InlineKeyboard(rows...))
}

func (h *Handler) handleSettingsPick(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	rest := strings.TrimPrefix(update.CallbackQuery.Data, "vs_set_")
	sep := strings.LastIndex(rest, "_")
	if sep < 0 {
		return
	}
	key := rest[:sep]
	idx, err := strconv.Atoi(rest[sep+1:])
	if err != nil {
		return
	}

	opts, err := h.store.VisualOptions(ctx)
	if err != nil {
		h.notifyError(ctx, b, chatID, err)
		return
	}
	names := optionsFor(opts, key)
	if idx < 0 || idx >= len(names) {
		return
	}

	for _, f := range settingsFields {
		if f.key != key {
			continue
		}
		// Picking the current value again unsets it.
		if f.get(st.Draft) == names[idx] {
			f.set(&st.Draft, "")
		} else {
			f.set(&st.Draft, names[idx])
		}
	}

	h.sendSettingsRoot(ctx, b, chatID, messageID)
}

func (h *Handler) handleSettingsClear(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	st.Draft = domain.VisualSettings{}
	h.sendSettingsRoot(ctx, b, chatID, messageID)
}

func (h *Handler) handleSettingsSave(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	st := middleware.GetState(ctx)
	if st == nil {
		return
	}

	if _, err := h.store.SaveVisualSettings(ctx, chatID); err != nil {
		if errors.Is(err, domain.ErrNoSession) {
			// No session yet; the draft is applied when the chat starts.
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "💾 Settings kept. They apply to your next prompt.",
			})
			return
		}
		h.notifyError(ctx, b, chatID, err)
		return
	}

	if st.Step == wizard.StepGenerate {
		h.sendGeneratePanel(ctx, b, chatID, messageID, true)
		return
	}
	tg.EditLongMessage(ctx, b, chatID, messageID,
		"💾 Visual settings saved: "+describeSettings(st.Draft), nil)
}

func (h *Handler) handleSettingsBack(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(ctx, b, update)
	if !ok {
		return
	}
	h.sendSettingsRoot(ctx, b, chatID, messageID)
}
