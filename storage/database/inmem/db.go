package inmemdb

import (
	"sync"

	"github.com/trezcool/tathmini/core/assessment"
	"github.com/trezcool/tathmini/core/submission"
	"github.com/trezcool/tathmini/core/user"
)

type (
	// DB keeps every table in memory. Rows are copied in and out so callers never share state with it.
	DB struct {
		user       *userTable
		session    *sessionTable
		assessment *assessmentTable
		submission *submissionTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*user.Session
	}

	assessmentTable struct {
		sync.RWMutex
		table map[string]*assessment.Assessment
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]*submission.Submission
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		session:    &sessionTable{table: make(map[string]*user.Session)},
		assessment: &assessmentTable{table: make(map[string]*assessment.Assessment)},
		submission: &submissionTable{table: make(map[string]*submission.Submission)},
	}
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
