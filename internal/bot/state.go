package bot

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chomper/internal/chomp"
)

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// sendEffect announces an animation and schedules the settle back to idle,
// replacing any timer still pending from the previous effect. The machine
// synchronizes itself, b.mu only guards the chomper map and its timers.
func (b *Bot) sendEffect(chatID int64, effect chomp.Effect, machine *chomp.Chomper) error {
	b.mu.Lock()
	cc, ok := b.chompers[chatID]
	if !ok {
		cc = &chatChomper{machine: machine}
		b.chompers[chatID] = cc
	}
	if cc.settle != nil {
		cc.settle.Stop()
	}
	cc.settle = time.AfterFunc(effect.Duration, cc.machine.Settle)
	b.mu.Unlock()

	face, speech := machine.Present()
	return b.sendTextWithRemove(chatID, face+" "+speech)
}

func (b *Bot) chomperFor(chatID int64) *chomp.Chomper {
	b.mu.Lock()
	defer b.mu.Unlock()
	cc, ok := b.chompers[chatID]
	if !ok {
		cc = &chatChomper{machine: chomp.New()}
		b.chompers[chatID] = cc
	}
	return cc.machine
}

func (b *Bot) trackCount(chatID int64, n int) (chomp.Effect, bool) {
	return b.chomperFor(chatID).TrackCount(n)
}

func (b *Bot) taskChomped(chatID int64) (chomp.Effect, bool) {
	return b.chomperFor(chatID).TaskChomped()
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}
