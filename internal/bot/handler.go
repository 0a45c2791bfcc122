package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"budgetbot/internal/charts"
	"budgetbot/internal/models"
)

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func periodToDays(period string) int {
	switch period {
	case "week":
		return 7
	case "month":
		return 30
	case "year":
		return 365
	}
	return 0
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	if _, err := b.tracker.Resolve(ctx, userID, displayName(msg.From)); err != nil {
		return err
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		return b.showMainMenu(ctx, chatID, userID)

	case "join":
		if args == "" {
			return b.reply(chatID, "Usage: /join CODE", nil)
		}
		joined, err := b.tracker.RedeemInvite(ctx, userID, args)
		if err != nil {
			return err
		}
		if !joined {
			return b.reply(chatID, "That code is invalid or already used.", mainMenu)
		}
		if err := b.reply(chatID, "Budgets merged. You now share income and expenses.", nil); err != nil {
			return err
		}
		return b.showMainMenu(ctx, chatID, userID)

	case "leave":
		if err := b.tracker.Leave(ctx, userID); err != nil {
			return err
		}
		if err := b.reply(chatID, "You left the shared budget and are back on your personal one.", nil); err != nil {
			return err
		}
		return b.showMainMenu(ctx, chatID, userID)

	case "kick":
		if args == "" {
			return b.reply(chatID, "Usage: /kick ID or /kick NAME", nil)
		}
		var (
			removed bool
			err     error
		)
		if targetID, convErr := strconv.ParseInt(args, 10, 64); convErr == nil {
			removed, err = b.tracker.RemoveMember(ctx, userID, targetID)
		} else {
			removed, err = b.tracker.RemoveMemberByName(ctx, userID, args)
		}
		if err != nil {
			return err
		}
		if !removed {
			return b.reply(chatID, "Could not remove them. Check that you own the budget and they are a member.", mainMenu)
		}
		return b.reply(chatID, "Member removed from the shared budget.", mainMenu)

	case "switch":
		mode := models.BudgetMode(strings.ToLower(args))
		switched, err := b.tracker.Switch(ctx, userID, mode)
		if err != nil {
			return err
		}
		if !switched {
			return b.reply(chatID, "Usage: /switch personal or /switch shared (needs a shared budget).", mainMenu)
		}
		return b.showMainMenu(ctx, chatID, userID)

	case "members":
		return b.showMembers(ctx, chatID, userID)

	case "cancel":
		b.pending.clear(chatID)
		return b.reply(chatID, "Cancelled.", mainMenu)
	}

	return b.reply(chatID, "Unknown command.", mainMenu)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	if _, err := b.tracker.Resolve(ctx, userID, displayName(msg.From)); err != nil {
		return err
	}

	text := strings.TrimSpace(msg.Text)

	if entry := b.pending.get(chatID); entry != nil {
		return b.continueConversation(ctx, chatID, userID, entry, text)
	}

	switch text {
	case btnExpenses:
		return b.reply(chatID, "Choose an action:", expenseMenu)
	case btnIncome:
		return b.reply(chatID, "Choose an action:", incomeMenu)
	case btnBack:
		return b.showMainMenu(ctx, chatID, userID)
	case btnAddExpense:
		b.pending.set(chatID, &pendingEntry{tType: models.TypeExpense, stage: stageAmount})
		return b.reply(chatID, "Enter the amount:", nil)
	case btnAddIncome:
		b.pending.set(chatID, &pendingEntry{tType: models.TypeIncome, stage: stageAmount})
		return b.reply(chatID, "Enter the amount:", nil)
	case btnInvite:
		code, err := b.tracker.CreateInvite(ctx, userID)
		if err != nil {
			return err
		}
		return b.reply(chatID, fmt.Sprintf(
			"Share this code with the other person:\n%s\nThey should send /join %s", code, code,
		), mainMenu)
	case btnPlans:
		return b.showPlans(ctx, chatID, userID)
	case btnReport:
		return b.sendCategoryReport(ctx, chatID, userID)
	}

	if strings.HasPrefix(text, "Income: ") {
		return b.showPeriodSummary(ctx, chatID, userID, models.TypeIncome, strings.TrimPrefix(text, "Income: "))
	}
	if strings.HasPrefix(text, "Expenses: ") {
		return b.showPeriodSummary(ctx, chatID, userID, models.TypeExpense, strings.TrimPrefix(text, "Expenses: "))
	}

	return b.reply(chatID, "I didn't understand that.", mainMenu)
}

// continueConversation advances the add-transaction dialog.
func (b *Bot) continueConversation(ctx context.Context, chatID, userID int64, entry *pendingEntry, text string) error {
	switch entry.stage {
	case stageAmount:
		amount, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
		if err != nil || amount <= 0 {
			return b.reply(chatID, "Enter a positive number.", nil)
		}
		entry.amount = amount
		entry.stage = stageDescription
		b.pending.set(chatID, entry)
		return b.reply(chatID, "Enter a description:", nil)

	case stageDescription:
		b.pending.clear(chatID)
		if _, err := b.tracker.AddTransaction(ctx, userID, entry.tType, entry.amount, text, ""); err != nil {
			return err
		}
		when := time.Now().UTC().Format("2006-01-02 15:04 UTC")
		if err := b.reply(chatID, fmt.Sprintf("Recorded (%s).", when), nil); err != nil {
			return err
		}
		return b.showMainMenu(ctx, chatID, userID)
	}

	b.pending.clear(chatID)
	return b.reply(chatID, "Something went wrong, starting over.", mainMenu)
}

func (b *Bot) showMainMenu(ctx context.Context, chatID, userID int64) error {
	balance, err := b.tracker.Balance(ctx, userID)
	if err != nil {
		return err
	}
	return b.reply(chatID, fmt.Sprintf("Your budget balance: %s", formatMoney(balance)), mainMenu)
}

func (b *Bot) showPeriodSummary(ctx context.Context, chatID, userID int64, tType models.TransactionType, period string) error {
	days := periodToDays(period)
	if days == 0 {
		return b.reply(chatID, "Unknown period.", mainMenu)
	}
	total, count, err := b.tracker.PeriodSummary(ctx, userID, tType, days)
	if err != nil {
		return err
	}
	label := "Expenses"
	if tType == models.TypeIncome {
		label = "Income"
	}
	return b.reply(chatID, fmt.Sprintf(
		"%s for the %s: %s\nEntries: %d", label, period, formatMoney(total), count,
	), mainMenu)
}

func (b *Bot) showPlans(ctx context.Context, chatID, userID int64) error {
	plans, err := b.tracker.ListPlans(ctx, userID)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		return b.reply(chatID, "No savings plans yet. Create one in the app.", mainMenu)
	}
	var sb strings.Builder
	sb.WriteString("Savings plans:\n")
	for _, p := range plans {
		fmt.Fprintf(&sb, "• %s: %s / %s\n", p.Title, formatMoney(p.CurrentAmount), formatMoney(p.TargetAmount))
	}
	return b.reply(chatID, sb.String(), mainMenu)
}

func (b *Bot) showMembers(ctx context.Context, chatID, userID int64) error {
	members, err := b.tracker.Members(ctx, userID, true)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return b.reply(chatID, "You are not in a shared budget.", mainMenu)
	}
	var sb strings.Builder
	sb.WriteString("Shared budget members:\n")
	for _, m := range members {
		name := m.DisplayName
		if name == "" {
			name = fmt.Sprintf("id:%d", m.TelegramID)
		}
		fmt.Fprintf(&sb, "• %s (%d)\n", name, m.TelegramID)
	}
	return b.reply(chatID, sb.String(), mainMenu)
}

// sendCategoryReport renders the expense category breakdown as a chart.
func (b *Bot) sendCategoryReport(ctx context.Context, chatID, userID int64) error {
	totals, err := b.tracker.CategorySummary(ctx, userID, models.TypeExpense, nil, nil)
	if err != nil {
		return err
	}
	png, err := charts.CategoryBar("Expenses by category", totals)
	if err != nil {
		return err
	}
	if png == nil {
		return b.reply(chatID, "No expenses to report yet.", mainMenu)
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "report.png", Bytes: png})
	_, err = b.api.Send(photo)
	return err
}
