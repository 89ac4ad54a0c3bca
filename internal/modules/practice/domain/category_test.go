package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pahm/internal/modules/practice/domain"
	apperrors "pahm/internal/platform/errors"
)

func TestCategoriesCoverTheMatrixOnce(t *testing.T) {
	t.Parallel()
	seenKeys := map[string]bool{}
	seenNames := map[string]bool{}
	for _, c := range domain.Categories() {
		seenKeys[c.Key()] = true
		seenNames[c.Name()] = true
		again, err := domain.CategoryAt(c.Temporal(), c.Affective())
		require.NoError(t, err)
		assert.Equal(t, c, again)
	}
	assert.Len(t, seenKeys, domain.CategoryCount)
	assert.Len(t, seenNames, domain.CategoryCount)
}

func TestCategoryNaming(t *testing.T) {
	t.Parallel()
	cases := []struct {
		category domain.Category
		key      string
		name     string
	}{
		{domain.PastAttachment, "past_attachment", "nostalgia"},
		{domain.PastNeutral, "past_neutral", "past"},
		{domain.PastAversion, "past_aversion", "regret"},
		{domain.PresentAttachment, "present_attachment", "likes"},
		{domain.PresentNeutral, "present_neutral", "present"},
		{domain.PresentAversion, "present_aversion", "dislikes"},
		{domain.FutureAttachment, "future_attachment", "anticipation"},
		{domain.FutureNeutral, "future_neutral", "future"},
		{domain.FutureAversion, "future_aversion", "worry"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.key, tc.category.Key())
		assert.Equal(t, tc.name, tc.category.Name())

		byKey, err := domain.ParseCategory(tc.key)
		require.NoError(t, err)
		assert.Equal(t, tc.category, byKey)
		byName, err := domain.ParseCategory(" " + tc.name + " ")
		require.NoError(t, err)
		assert.Equal(t, tc.category, byName)
	}
}

func TestParseCategoryRejectsUnknown(t *testing.T) {
	t.Parallel()
	_, err := domain.ParseCategory("boredom")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = domain.CategoryAt(domain.Temporal(3), domain.Neutral)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCategoryTextEncoding(t *testing.T) {
	t.Parallel()
	raw, err := json.Marshal(map[string]domain.Category{"c": domain.FutureAversion})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":"future_aversion"}`, string(raw))

	var decoded map[string]domain.Category
	require.NoError(t, json.Unmarshal([]byte(`{"c":"worry"}`), &decoded))
	assert.Equal(t, domain.FutureAversion, decoded["c"])
}
