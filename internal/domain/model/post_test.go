//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostsListOptions_Validate(t *testing.T) {
	assert.NoError(t, PostsListOptions{Tenant: "coach", Page: 1, Limit: 1}.Validate())
	assert.NoError(t, PostsListOptions{Tenant: "coach", Page: 3, Limit: 100}.Validate())
	assert.Error(t, PostsListOptions{Tenant: "", Page: 1, Limit: 10}.Validate())
	assert.Error(t, PostsListOptions{Tenant: "coach", Page: 0, Limit: 10}.Validate())
	assert.Error(t, PostsListOptions{Tenant: "coach", Page: 1, Limit: 0}.Validate())
	assert.Error(t, PostsListOptions{Tenant: "coach", Page: 1, Limit: 101}.Validate())
	assert.NoError(t, PostsListOptions{Tenant: "coach", Page: MaxPostsPage, Limit: MaxPostsLimit}.Validate())
	assert.Error(t, PostsListOptions{Tenant: "coach", Page: MaxPostsPage + 1, Limit: 1}.Validate())
	assert.Error(t, PostsListOptions{Tenant: "coach", Page: math.MaxInt, Limit: MaxPostsLimit}.Validate())
}

func TestPostsListOptions_Offset(t *testing.T) {
	assert.Equal(t, 0, PostsListOptions{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, PostsListOptions{Page: 3, Limit: 20}.Offset())
	assert.Positive(t, PostsListOptions{Page: MaxPostsPage, Limit: MaxPostsLimit}.Offset())
}
