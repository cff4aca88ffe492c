package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/catusdev/catus-client/internal/common"
)

func today() string {
	return time.Now().Format(common.DateLayout)
}

// Login exchanges a Kakao authorization code for a session.
func (a *App) Login(ctx context.Context) error {
	code, err := GetAuthCode(os.Stdout)
	if err != nil {
		printlnFn("Could not read authorization code:", err)
		return err
	}
	if code == "" {
		printlnFn("No code entered.")
		return nil
	}

	user, err := a.session.LoginWithKakao(ctx, code)
	if err != nil {
		printlnFn("Login failed:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Welcome, %s!", user.Nickname))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	printlnFn("Signed out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	snap := a.session.Snapshot()
	if snap.User == nil {
		printlnFn("Not signed in.")
		return nil
	}
	printlnFn(fmt.Sprintf("%s (id %d)", snap.User.Nickname, snap.User.ID))
	return nil
}

// Chat sends one conversational turn and prints the assistant's reply.
func (a *App) Chat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn("Usage: chat <text>")
		return nil
	}
	content := strings.Join(args, " ")

	reply, err := a.syncer.RecordTurn(ctx, today(), content)
	if err != nil {
		printlnFn("Could not send message:", err)
		return err
	}
	printlnFn(reply.Content)
	return nil
}

// End finishes today's conversation and prints the generated diary entry.
func (a *App) End(ctx context.Context) error {
	analysis, err := a.syncer.EndConversation(ctx, today())
	if err != nil {
		printlnFn("Could not end conversation:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Diary saved. Emotion: %s", analysis.Emotion))
	if analysis.Summary != "" {
		printlnFn(analysis.Summary)
	}
	return nil
}

// History prints a day's conversation from the local ledger.
func (a *App) History(ctx context.Context, args []string) error {
	date := today()
	if len(args) > 0 {
		date = args[0]
	}

	messages, err := a.ledger.ListByDate(ctx, date)
	if err != nil {
		printlnFn("Could not read history:", err)
		return err
	}
	if len(messages) == 0 {
		printlnFn("No messages for", date)
		return nil
	}
	for _, msg := range messages {
		printlnFn(fmt.Sprintf("[%s] %s", msg.Role, msg.Content))
	}
	return nil
}

// Pending lists the days the server has not confirmed yet.
func (a *App) Pending(ctx context.Context) error {
	batches, err := a.syncer.Unsynced(ctx)
	if err != nil {
		printlnFn("Could not list pending days:", err)
		return err
	}
	if len(batches) == 0 {
		printlnFn("Everything is synced.")
		return nil
	}
	for _, batch := range batches {
		printlnFn(fmt.Sprintf("%s: %d message(s)", batch.Date, len(batch.Messages)))
	}
	return nil
}

// Sync re-pushes every pending day to the server.
func (a *App) Sync(ctx context.Context) error {
	synced, err := a.syncer.Resync(ctx)
	if err != nil {
		printlnFn("Sync failed:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Synced %d day(s).", synced))
	return nil
}

// Cleanup evicts old synced history if local storage is filling up.
func (a *App) Cleanup(ctx context.Context) error {
	result, err := a.ledger.AutoCleanupIfNeeded(ctx)
	if err != nil {
		printlnFn("Cleanup failed:", err)
		return err
	}
	if !result.Cleaned {
		printlnFn("Storage usage is fine, nothing to clean.")
		return nil
	}
	printlnFn(fmt.Sprintf("Removed %d old message(s); usage now %.1f%%.", result.DeletedCount, result.NewPercentage))
	return nil
}
