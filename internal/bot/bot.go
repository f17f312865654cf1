package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"chomper/internal/chomp"
	"chomper/internal/model"
	"chomper/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageNotes
	stageDueDate
	stageRecurring
	stageRecurType
	stageRecurDay
	stageEditTitle
	stageEditNotes
	stageEditDueDate
)

const (
	cbCompletePrefix = "complete:"
	cbDeletePrefix   = "delete:"
	cbEditPrefix     = "edit:"
	cbConfirm        = "confirm"
	cbCancel         = "cancel"
)

const (
	btnSkip     = "⏭ Skip"
	btnYes      = "Yes"
	btnNo       = "No"
	btnConfirm  = "✅ Confirm"
	btnCancel   = "↩️ Cancel"
	btnToday    = "Today"
	btnTomorrow = "Tomorrow"
	btnSomeday  = "Someday"

	menuLabelNewTask = "➕ New task"
	menuLabelTasks   = "📋 Tasks"
	menuLabelClear   = "🧹 Clear done"
	menuLabelHelp    = "ℹ️ Help"
)

type conversationState struct {
	stage     conversationStage
	input     service.TaskInput
	editingID string
}

type confirmationAction int

const (
	actionComplete confirmationAction = iota
	actionDelete
	actionClear
)

type confirmationRequest struct {
	taskID string
	action confirmationAction
}

// chatChomper pairs a chat's animation machine with its settle timer. The
// timer is stopped whenever a new effect lands so it never fires against a
// stale state.
type chatChomper struct {
	machine *chomp.Chomper
	settle  *time.Timer
}

// Bot is the Telegram front end.
type Bot struct {
	api         *tgbotapi.BotAPI
	users       userDirectory
	taskSvc     *service.TaskService
	reminderSvc *service.ReminderService
	logger      *log.Logger

	mu            sync.Mutex
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	chompers      map[int64]*chatChomper
}

// userDirectory is the slice of the user repository the bot needs.
type userDirectory interface {
	UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error)
	ListTelegramUsers(ctx context.Context) ([]model.User, error)
}

func New(token string, users userDirectory, taskSvc *service.TaskService, reminderSvc *service.ReminderService, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	logger.Info("bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:           api,
		users:         users,
		taskSvc:       taskSvc,
		reminderSvc:   reminderSvc,
		logger:        logger,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
		chompers:      make(map[int64]*chatChomper),
	}, nil
}

// Start polls updates until ctx is cancelled. Handler errors are logged and
// never take the poll loop down.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.logger.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.logger.Error("handle callback", "error", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.logger.Error("handle message", "error", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "↩️ Cancelled. Nothing was changed.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.logger.Info("command", "user", msg.From.ID, "cmd", msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Not sure what you mean. Try /add to create a task or /help for the command list.")
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	// Conversations and confirmations win over menu buttons so a task titled
	// "📋 Tasks" is still possible.
	if b.hasConversation(msg.From.ID) {
		return false, nil
	}
	if _, ok := b.getConfirmation(msg.From.ID); ok {
		return false, nil
	}
	switch strings.TrimSpace(msg.Text) {
	case menuLabelNewTask:
		return true, b.startAddConversation(ctx, msg)
	case menuLabelTasks:
		return true, b.handleListTasks(ctx, msg)
	case menuLabelClear:
		return true, b.askClearConfirmation(msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	}
	return false, nil
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "add":
		return b.startAddConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "clear":
		return b.askClearConfirmation(msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "↩️ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "friend"
	}

	text := fmt.Sprintf(
		"🦖 Hi %s, I'm Chomper!\n<b>Feed me your tasks and I'll chomp through them with you.</b>\n\n"+
			"• /add — create a task\n"+
			"• /tasks — your list, grouped by date\n"+
			"• /clear — sweep away completed tasks\n"+
			"• /report — today's agenda\n"+
			"• /cancel — abort the current dialog\n"+
			"• /help — all commands",
		escape(name),
	)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /add — create a task step by step (due date, notes, recurrence)\n" +
		"• /tasks — list tasks in Today / Tomorrow / Upcoming / Someday buckets\n" +
		"• /clear — delete every completed task\n" +
		"• /report — send today's agenda now\n" +
		"• /cancel — abort the current dialog\n\n" +
		"Tap ✅ on a task to complete it (recurring tasks immediately get their next occurrence), ✏️ to edit, 🗑 to delete."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, ok, err := b.reminderSvc.DailyAgenda(ctx, *user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, "Couldn't build the agenda, try again in a bit.")
	}
	if !ok {
		return b.sendText(msg.Chat.ID, "Nothing due this week. Chomper approves. 🦖")
	}
	return b.sendText(msg.Chat.ID, text)
}

// SendDailyAgendas pushes the agenda to every known Telegram user. Used by
// the cron job.
func (b *Bot) SendDailyAgendas(ctx context.Context) error {
	users, err := b.users.ListTelegramUsers(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, user := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text, ok, err := b.reminderSvc.DailyAgenda(ctx, user, now)
		if err != nil {
			b.logger.Error("build agenda", "user", user.TelegramID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			b.logger.Error("send agenda", "user", user.TelegramID, "error", err)
		}
	}
	return nil
}

func (b *Bot) startAddConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what needs to be done?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle, stageEditTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "A task needs a title. What should it say?", cancelKeyboard())
		}
		state.input.Text = text
		if state.stage == stageTitle {
			state.stage = stageNotes
		} else {
			state.stage = stageEditNotes
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, "📝 Any notes? (or Skip)", skipKeyboard())

	case stageNotes, stageEditNotes:
		if !isSkipInput(text) {
			state.input.Notes = text
		}
		if state.stage == stageNotes {
			state.stage = stageDueDate
			return b.sendWithReplyMarkup(msg.Chat.ID, "📅 When is it due? Pick one or send a date like <code>2026-09-15</code>.", dueDateKeyboard(true))
		}
		state.stage = stageEditDueDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📅 New due date? Pick one or send a date like <code>2026-09-15</code>. Edits always need a due date.", dueDateKeyboard(false))

	case stageDueDate, stageEditDueDate:
		due, someday, err := parseDueInput(text, time.Now())
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I can't read that date. Use <code>2026-09-15</code>, or one of the buttons.", dueDateKeyboard(state.stage == stageDueDate))
		}
		if someday {
			// Edits require a due date, same rule as the original edit form.
			if state.stage == stageEditDueDate {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Edited tasks need a due date. Pick one or send a date.", dueDateKeyboard(false))
			}
			state.input.DueDate = nil
		} else {
			state.input.DueDate = &due
		}
		if state.stage == stageEditDueDate {
			err := b.finishTaskEdit(ctx, msg.From, state, msg.Chat.ID)
			b.clearConversation(msg.From.ID)
			return err
		}
		state.stage = stageRecurring
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Should this task repeat?", yesNoKeyboard())

	case stageRecurring:
		switch strings.ToLower(text) {
		case "yes", "y":
			if state.input.DueDate == nil {
				// Recurrence without a due date is rejected before any store
				// call; bounce back to the date step.
				state.stage = stageDueDate
				return b.sendWithReplyMarkup(msg.Chat.ID, "A repeating task needs a due date first. When is the first one due?", dueDateKeyboard(false))
			}
			state.input.IsRecurring = true
			state.stage = stageRecurType
			return b.sendWithReplyMarkup(msg.Chat.ID, "How often?", recurTypeKeyboard())
		case "no", "n":
			state.input.IsRecurring = false
			err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
			b.clearConversation(msg.From.ID)
			return err
		default:
			return b.sendWithReplyMarkup(msg.Chat.ID, "Tap Yes or No.", yesNoKeyboard())
		}

	case stageRecurType:
		switch strings.ToLower(text) {
		case "daily":
			state.input.RecurrenceType = model.RecurDaily
			err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
			b.clearConversation(msg.From.ID)
			return err
		case "weekly":
			state.input.RecurrenceType = model.RecurWeekly
			state.stage = stageRecurDay
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Which weekday? Send 0–6 (0 = Sunday).", tgbotapi.NewRemoveKeyboard(true))
		case "monthly":
			state.input.RecurrenceType = model.RecurMonthly
			state.stage = stageRecurDay
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Which day of the month? Send 1–31. Day 31 in a shorter month rolls over.", tgbotapi.NewRemoveKeyboard(true))
		default:
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick Daily, Weekly or Monthly.", recurTypeKeyboard())
		}

	case stageRecurDay:
		day, err := strconv.Atoi(text)
		if err != nil {
			return b.sendText(msg.Chat.ID, "The day must be a number.")
		}
		if state.input.RecurrenceType == model.RecurWeekly && (day < 0 || day > 6) {
			return b.sendText(msg.Chat.ID, "Weekday must be between 0 and 6.")
		}
		if state.input.RecurrenceType == model.RecurMonthly && (day < 1 || day > 31) {
			return b.sendText(msg.Chat.ID, "Day of month must be between 1 and 31.")
		}
		state.input.RecurrenceDay = day
		err = b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Try /add again.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't save the task: %s", escape(userFacing(err))))
	}

	b.logger.Info("task created", "id", task.ID, "user", user.ID, "recurring", task.IsRecurring)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>Task:</b> %s\n", escape(task.Text)))
	if task.Notes != "" {
		summary.WriteString(fmt.Sprintf("• <b>Notes:</b> %s\n", escape(task.Notes)))
	}
	if due, ok := task.Due(); ok {
		summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", due.Format("2006-01-02")))
	} else {
		summary.WriteString("• <b>Due:</b> someday\n")
	}
	if task.IsRecurring {
		summary.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", describeRecurrence(*task)))
	}

	out := tgbotapi.NewMessage(chatID, strings.TrimSpace(summary.String()))
	out.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(out); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) finishTaskEdit(ctx context.Context, from *tgbotapi.User, state *conversationState, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.UpdateTask(ctx, user, state.editingID, state.input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendTextWithRemove(chatID, "That task is gone already.")
		}
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Couldn't update the task: %s", escape(userFacing(err))))
	}

	b.logger.Info("task updated", "id", task.ID, "user", user.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("✏️ Updated “%s”.", escape(task.Text))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

// sendTaskList renders the bucketed list with per-task action buttons and
// keeps the chat's chomper informed about the incomplete count.
func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.taskSvc.List(ctx, user)
	if err != nil {
		return b.sendText(chatID, "Couldn't fetch your tasks, try again in a bit.")
	}

	machine := b.chomperFor(chatID)
	if effect, ok := b.trackCount(chatID, service.CountIncomplete(tasks)); ok {
		if err := b.sendEffect(chatID, effect, machine); err != nil {
			return err
		}
	}

	if len(tasks) == 0 {
		return b.sendText(chatID, "🦖 Ready for tasks! Add one with /add.")
	}

	sections := service.Organize(tasks, time.Now())

	face, speech := machine.Present()

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s <i>%s</i>\n\n", face, escape(speech)))

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, group := range []struct {
		bucket service.Bucket
		tasks  []model.Task
	}{
		{service.BucketToday, sections.Today},
		{service.BucketTomorrow, sections.Tomorrow},
		{service.BucketUpcoming, sections.Upcoming},
		{service.BucketSomeday, sections.Someday},
	} {
		if len(group.tasks) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("<b>%s · %d</b>\n", strings.ToUpper(group.bucket.String()), len(group.tasks)))
		for _, task := range group.tasks {
			builder.WriteString(formatTaskLine(task, time.Now()))
			buttons = append(buttons, taskButtonRow(task))
		}
		builder.WriteByte('\n')
	}

	if len(sections.Completed) > 0 {
		builder.WriteString(fmt.Sprintf("<b>COMPLETED · %d</b>\n", len(sections.Completed)))
		for _, task := range sections.Completed {
			builder.WriteString(fmt.Sprintf("✔️ <s>%s</s>\n", escape(task.Text)))
		}
		builder.WriteString("Sweep them away with /clear.\n")
	}

	out := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	if len(buttons) > 0 {
		out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	out.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(out)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Error("callback ack", "error", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(data, cbCompletePrefix):
		return b.askCompleteConfirmation(ctx, chatID, cb.From, strings.TrimPrefix(data, cbCompletePrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(ctx, chatID, cb.From, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbEditPrefix):
		return b.startEditConversation(ctx, chatID, cb.From, strings.TrimPrefix(data, cbEditPrefix))
	default:
		return nil
	}
}

func (b *Bot) startEditConversation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "That task is gone already.")
		}
		return err
	}

	state := &conversationState{
		stage:     stageEditTitle,
		editingID: task.ID,
		input: service.TaskInput{
			IsRecurring:    task.IsRecurring,
			RecurrenceType: task.RecurrenceType,
			RecurrenceDay:  task.RecurrenceDay,
		},
	}
	b.setConversation(from.ID, state)
	return b.sendWithReplyMarkup(chatID, fmt.Sprintf("✏️ Editing “%s”.\nNew title?", escape(task.Text)), cancelKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		switch req.action {
		case actionDelete:
			return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
		case actionClear:
			return b.clearCompletedAndRefresh(ctx, msg.Chat.ID, msg.From)
		default:
			return b.completeTaskAndRefresh(ctx, msg.Chat.ID, msg.From, req.taskID)
		}
	case isCancelInput(text) || isDeclineInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendTextWithRemove(msg.Chat.ID, "↩️ Okay, nothing changed.")
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel first.", confirmKeyboard())
	}
}

func (b *Bot) askCompleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "That task is gone already.")
		}
		return err
	}
	if task.Completed {
		return b.sendText(chatID, "Already chomped. 🦖")
	}

	text := fmt.Sprintf("Chomp “%s”?", escape(task.Text))
	if task.IsRecurring {
		text += "\nIt repeats, so the next occurrence will be queued up."
	}
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: actionComplete})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendText(chatID, "That task is gone already.")
		}
		return err
	}

	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: actionDelete})
	return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Delete “%s”? This can't be undone.", escape(task.Text)), confirmKeyboard())
}

func (b *Bot) askClearConfirmation(msg *tgbotapi.Message) error {
	b.setConfirmation(msg.From.ID, confirmationRequest{action: actionClear})
	return b.sendWithReplyMarkup(msg.Chat.ID, "Delete every completed task?", confirmKeyboard())
}

func (b *Bot) completeTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CompleteTask(ctx, user, taskID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return b.sendTextWithRemove(chatID, "That task is gone already.")
		case errors.Is(err, service.ErrNextOccurrence):
			// The predecessor is still incomplete; tell the user exactly that.
			b.logger.Error("recurrence rollover failed", "task", taskID, "error", err)
			return b.sendTextWithRemove(chatID, "⚠️ Couldn't create the next occurrence, so the task was left unfinished. Try again.")
		default:
			return b.sendTextWithRemove(chatID, fmt.Sprintf("Something went wrong: %s", escape(userFacing(err))))
		}
	}

	b.logger.Info("task completed", "id", task.ID, "user", user.ID, "recurring", task.IsRecurring)

	machine := b.chomperFor(chatID)
	if effect, ok := b.taskChomped(chatID); ok {
		if err := b.sendEffect(chatID, effect, machine); err != nil {
			return err
		}
	}

	info := fmt.Sprintf("✅ “%s” chomped.", escape(task.Text))
	if task.IsRecurring {
		info = fmt.Sprintf("♻️ “%s” chomped — next one is due %s.", escape(task.Text),
			service.NextOccurrence(mustDue(task), task.RecurrenceType, task.RecurrenceDay).Format("Jan 2"))
	}
	if err := b.sendTextWithRemove(chatID, info); err != nil {
		return err
	}

	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b.sendTextWithRemove(chatID, "That task is gone already.")
		}
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Something went wrong: %s", escape(userFacing(err))))
	}

	if err := b.taskSvc.DeleteTask(ctx, user, taskID); err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Something went wrong: %s", escape(userFacing(err))))
	}

	b.logger.Info("task deleted", "id", task.ID, "user", user.ID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 “%s” deleted.", escape(task.Text))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) clearCompletedAndRefresh(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	n, err := b.taskSvc.ClearCompleted(ctx, user)
	if err != nil {
		return b.sendTextWithRemove(chatID, "Couldn't clear completed tasks, try again in a bit.")
	}
	if n == 0 {
		return b.sendTextWithRemove(chatID, "Nothing completed to clear.")
	}

	b.logger.Info("cleared completed", "user", user.ID, "count", n)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🧹 Cleared %d completed task(s).", n)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func mustDue(t *model.Task) time.Time {
	due, _ := t.Due()
	return due
}
