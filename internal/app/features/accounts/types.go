// internal/app/features/accounts/types.go
package accounts

import (
	"html/template"

	"github.com/hubworks/accounthub/internal/app/system/formutil"
	"github.com/hubworks/accounthub/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listItem is a single row in the accounts list.
type listItem struct {
	ID         primitive.ObjectID
	Name       string
	NameCI     string // case-insensitive name for cursor building
	City       string
	State      string
	Status     string
	UsersCount int64
}

// listData is the view model for the accounts list page.
type listData struct {
	Title      string
	IsLoggedIn bool
	Role       string
	UserName   string

	Q           string
	Items       []listItem
	CurrentPath string

	// Pagination
	Shown      int
	Total      int64
	HasPrev    bool
	HasNext    bool
	PrevCursor string
	NextCursor string
	RangeStart int
	RangeEnd   int
	PrevStart  int
	NextStart  int
}

// newData is the view model for the "New Account" page.
type newData struct {
	formutil.Base

	Name    string
	City    string
	State   string
	Contact string
}

// memberRow is one associated account user shown on the detail page.
type memberRow struct {
	ID     string
	Name   string
	Email  string
	Title  string
	Status string
}

// viewData is the view model for the "View Account" page.
type viewData struct {
	viewdata.BaseVM

	ID         string
	Name       string
	City       string
	State      string
	Status     string
	Contact    template.HTML // sanitized at write time
	Members    []memberRow
	UsersCount int64
	CanManage  bool
}

// editData is the view model for the "Edit Account" page.
type editData struct {
	formutil.Base

	ID      string
	Name    string
	City    string
	State   string
	Status  string
	Contact string
}

// deleteData is the view model for the delete confirmation page.
type deleteData struct {
	viewdata.BaseVM

	ID         string
	Name       string
	UsersCount int64
}
