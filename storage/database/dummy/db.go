// Package dummydb provides in-memory repositories for tests and local
// development without a running database.
package dummydb

import (
	"sync"

	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
	"github.com/mwalimu/alama/core/user"
)

type (
	DB struct {
		user    *userTable
		student *studentTable
		subject *subjectTable
		mark    *markTable
	}

	userTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*user.User
	}

	studentTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*student.Student
	}

	subjectTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*subject.Subject
	}

	markTable struct {
		sync.RWMutex
		pkCount int
		table   map[int]*mark.Mark
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[int]*user.User)},
		student: &studentTable{table: make(map[int]*student.Student)},
		subject: &subjectTable{table: make(map[int]*subject.Subject)},
		mark:    &markTable{table: make(map[int]*mark.Mark)},
	}
	return db, nil
}
