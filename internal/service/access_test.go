package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wishlist-service/internal/models"
	"github.com/wishlist-service/internal/problem"
)

func TestAccessControl_Authorize(t *testing.T) {
	access := NewAccessControl(nil, nil)
	public := &models.Wishlist{ID: 1, OwnerID: 10, IsPublic: true}
	private := &models.Wishlist{ID: 2, OwnerID: 10, IsPublic: false}
	owner := AsUser(10)
	stranger := AsUser(11)

	tests := []struct {
		name      string
		wishlist  *models.Wishlist
		caller    Caller
		readKind  problem.Kind
		writeKind problem.Kind
	}{
		{"public anonymous", public, Anonymous, "", problem.KindInvalidToken},
		{"public stranger", public, stranger, "", problem.KindAccessDenied},
		{"public owner", public, owner, "", ""},
		{"private anonymous", private, Anonymous, problem.KindAccessDenied, problem.KindInvalidToken},
		{"private stranger", private, stranger, problem.KindAccessDenied, problem.KindAccessDenied},
		{"private owner", private, owner, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.readKind, problem.KindOf(access.AuthorizeRead(tt.wishlist, tt.caller)))
			assert.Equal(t, tt.writeKind, problem.KindOf(access.AuthorizeWrite(tt.wishlist, tt.caller)))
		})
	}
}

func TestCaller_AnonymousOwnsNothing(t *testing.T) {
	// a zero user id must not match an unowned row
	w := &models.Wishlist{OwnerID: 0}
	assert.False(t, Anonymous.Owns(w))
}

func TestNewItemView_ReservedByMe(t *testing.T) {
	w := &models.Wishlist{ID: 1, OwnerID: 10, IsPublic: true}
	item := &models.WishItem{ID: 5, WishlistID: 1, Name: "Book", Reservation: &models.Reservation{ReservedByUserID: 11}}

	view := NewItemView(item, w, AsUser(11))
	assert.True(t, view.ReservedByMe)
	assert.True(t, view.IsReserved)

	free := NewItemView(&models.WishItem{ID: 6, WishlistID: 1, Name: "Pen"}, w, AsUser(11))
	assert.False(t, free.IsReserved)
	assert.False(t, free.ReservedByMe)
	assert.Nil(t, free.ReservedAt)
}
