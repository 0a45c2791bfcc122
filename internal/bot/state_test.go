package bot

import (
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"budgetbot/internal/models"
)

func TestPendingStates(t *testing.T) {
	p := newPendingStates(time.Minute)

	assert.Nil(t, p.get(1))

	p.set(1, &pendingEntry{tType: models.TypeExpense, stage: stageAmount})
	entry := p.get(1)
	assert.NotNil(t, entry)
	assert.Equal(t, stageAmount, entry.stage)

	// Chats do not share dialogs.
	assert.Nil(t, p.get(2))

	p.clear(1)
	assert.Nil(t, p.get(1))
}

func TestPendingStatesExpiry(t *testing.T) {
	p := newPendingStates(10 * time.Millisecond)
	p.set(1, &pendingEntry{tType: models.TypeIncome, stage: stageAmount})
	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, p.get(1), "expired dialogs are discarded")
}

func TestPeriodToDays(t *testing.T) {
	assert.Equal(t, 7, periodToDays("week"))
	assert.Equal(t, 30, periodToDays("month"))
	assert.Equal(t, 365, periodToDays("year"))
	assert.Equal(t, 0, periodToDays("decade"))
	assert.Equal(t, 0, periodToDays(""))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@alice", displayName(&tgbotapi.User{UserName: "alice", FirstName: "Alice"}))
	assert.Equal(t, "Alice Smith", displayName(&tgbotapi.User{FirstName: "Alice", LastName: "Smith"}))
	assert.Equal(t, "Alice", displayName(&tgbotapi.User{FirstName: "Alice"}))
}
