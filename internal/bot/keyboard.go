package bot

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Menu button labels. The router matches on these exact strings.
const (
	btnExpenses   = "Expenses"
	btnIncome     = "Income"
	btnPlans      = "Plans"
	btnInvite     = "Invite"
	btnReport     = "Report"
	btnBack       = "Back"
	btnAddExpense = "Add expense"
	btnAddIncome  = "Add income"
)

var mainMenu = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnExpenses),
		tgbotapi.NewKeyboardButton(btnIncome),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnPlans),
		tgbotapi.NewKeyboardButton(btnInvite),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnReport),
	),
)

var incomeMenu = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnAddIncome),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("Income: week"),
		tgbotapi.NewKeyboardButton("Income: month"),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("Income: year"),
		tgbotapi.NewKeyboardButton(btnBack),
	),
)

var expenseMenu = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnAddExpense),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("Expenses: week"),
		tgbotapi.NewKeyboardButton("Expenses: month"),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("Expenses: year"),
		tgbotapi.NewKeyboardButton(btnBack),
	),
)
