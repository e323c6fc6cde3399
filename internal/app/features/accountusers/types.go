// internal/app/features/accountusers/types.go
package accountusers

import (
	"github.com/hubworks/accounthub/internal/app/system/formutil"
	"github.com/hubworks/accounthub/internal/app/system/viewdata"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listItem is one membership row with the joined user fields.
type listItem struct {
	ID       primitive.ObjectID
	UserID   primitive.ObjectID
	Name     string
	Username string
	Email    string
	Title    string
	Status   string
}

// listData is the view model for the account-user list page.
type listData struct {
	viewdata.BaseVM

	AccountID   string
	AccountName string
	Items       []listItem
	CanManage   bool
}

// newData is the view model for the "Add User" page.
type newData struct {
	formutil.Base

	AccountID   string
	AccountName string

	Username  string
	FirstName string
	LastName  string
	Email     string
	UserTitle string
}

// viewData is the view model for the account-user detail page.
type viewData struct {
	viewdata.BaseVM

	AccountID   string
	AccountName string

	ID        string
	Name      string
	Username  string
	Email     string
	UserTitle string
	Status    string
	CanManage bool
}

// editData is the view model for the account-user edit page.
type editData struct {
	formutil.Base

	AccountID string
	ID        string
	Name      string
	UserTitle string
	Status    string
}
