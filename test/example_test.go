package test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrEthical07/authcore"
)

// ExampleNew builds an engine on Postgres and Redis.
func ExampleNew() {
	db, _ := sql.Open("pgx", "postgres://localhost:5432/auth")

	cfg := authcore.DefaultConfig()
	cfg.AppURL = "https://example.com"

	engine, err := authcore.New().
		WithConfig(cfg).
		WithDB(db).
		WithRedisURL("redis://localhost:6379/0", "").
		Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_SignIn shows how flow failures carry a stable code.
func ExampleEngine_SignIn() {
	var engine *authcore.Engine
	sessionID, err := engine.SignIn(context.Background(), "ada@example.com", "Str0ng-Pass!")

	var fe *authcore.FlowError
	switch {
	case errors.As(err, &fe) && fe.Code == authcore.CodeRateLimited:
		if at, ok := authcore.RetryAfter(err); ok {
			fmt.Println("retry at", at)
		}
	case err != nil:
		fmt.Println(authcore.CodeOf(err))
	default:
		fmt.Println("session", sessionID)
	}
}

// ExampleBuilder_Build shows that a database is required.
func ExampleBuilder_Build() {
	_, err := authcore.New().Build()
	fmt.Println(errors.Is(err, authcore.ErrDatabaseRequired))
	// Output: true
}

// ExampleEngine_MetricsSnapshot reads in-process counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *authcore.Engine
	snapshot := engine.MetricsSnapshot()
	fmt.Println(snapshot.Counters[authcore.MetricSignInSuccess])
	// Output: 0
}
