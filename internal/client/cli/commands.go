package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
)

func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		printlnFn("error:", err)
		return err
	}

	if err := a.session.Login(ctx, username); err != nil {
		printlnFn("Login failed:", err)
		return err
	}
	printlnFn("Logged in as", username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	printlnFn("Logged out")
	return nil
}

func (a *App) Users(ctx context.Context) error {
	snap := a.store.Snapshot()
	if len(snap.Roster) == 0 {
		printlnFn("No other users connected")
		return nil
	}
	printlnFn(fmt.Sprintf("Connected users (%d):", len(snap.Roster)))
	for _, u := range snap.Roster {
		printlnFn("  " + u)
	}
	return nil
}

// Send sends a notification: send <username|all> <message...>
func (a *App) Send(ctx context.Context, args []string) error {
	if len(args) < 2 {
		printlnFn("Usage: send <username|all> <message>")
		return nil
	}
	target := args[0]
	message := strings.Join(args[1:], " ")

	if err := a.api.Notify(ctx, a.store.Identity(), target, message); err != nil {
		printlnFn("Send failed:", err)
		return err
	}
	printlnFn("Sent")
	return nil
}

// WaitFor sends an acknowledgment request: waitfor <u1,u2,...> <message...>
func (a *App) WaitFor(ctx context.Context, args []string) error {
	if len(args) < 2 {
		printlnFn("Usage: waitfor <user1,user2,...> <message>")
		return nil
	}

	var to []string
	for _, u := range strings.Split(args[0], ",") {
		if u = strings.TrimSpace(u); u != "" {
			to = append(to, u)
		}
	}
	message := strings.Join(args[1:], " ")

	requestID, err := a.coordinator.SendRequest(ctx, to, message)
	if err != nil {
		printlnFn("Request failed:", err)
		return err
	}
	printlnFn("Waiting for acknowledgments, request", requestID)
	return nil
}

func (a *App) Ack(ctx context.Context) error {
	pending, ok := a.coordinator.Pending()
	if !ok {
		printlnFn("Nothing to acknowledge")
		return nil
	}

	if err := a.coordinator.Acknowledge(ctx); err != nil {
		printlnFn("Acknowledge failed:", err)
		return err
	}
	printlnFn("Acknowledged request from", pending.FromUsername)
	return nil
}

func (a *App) Dismiss(ctx context.Context) error {
	a.coordinator.Dismiss()
	printlnFn("Dismissed")
	return nil
}

func (a *App) Requests(ctx context.Context) error {
	snap := a.store.Snapshot()
	if len(snap.AckRequests) == 0 {
		printlnFn("No acknowledgment requests")
		return nil
	}

	for _, req := range snap.AckRequests {
		state, _ := a.coordinator.RequestState(req.ID)
		printlnFn(fmt.Sprintf("%s [%s] %s", req.ID, state, req.Message))
		for _, u := range req.ToUsernames {
			mark := "[waiting]"
			if slices.Contains(req.AcknowledgedBy, u) {
				mark = "[done]"
			}
			printlnFn(fmt.Sprintf("  %s %s", mark, u))
		}
	}
	return nil
}

func (a *App) Messages(ctx context.Context) error {
	snap := a.store.Snapshot()
	if len(snap.Notifications) == 0 {
		printlnFn("No messages yet")
		return nil
	}
	for _, n := range snap.Notifications {
		printlnFn(fmt.Sprintf("%s  %s: %s", n.Timestamp.Format("15:04:05"), n.From, n.Message))
	}
	return nil
}

func (a *App) ClearMessages(ctx context.Context) error {
	a.store.ClearNotifications()
	printlnFn("Messages cleared")
	return nil
}
