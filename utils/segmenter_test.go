package utils

import (
	"testing"

	"linkedcrm/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentContactCascadia(t *testing.T) {
	contact := &models.Contact{
		Location: "Seattle, Washington, United States",
		Headline: "Machine Learning Engineer at Acme",
	}
	tags := SegmentContact(contact, nil)
	assert.Equal(t, []string{models.SegmentCascadia}, tags)
}

func TestSegmentContactCascadiaNeedsKeywords(t *testing.T) {
	// PNW location without an AI signal does not qualify
	contact := &models.Contact{
		Location: "Portland, Oregon",
		Headline: "Owner at Rose City Bakery",
	}
	tags := SegmentContact(contact, nil)
	assert.NotContains(t, tags, models.SegmentCascadia)
}

func TestSegmentContactLATAMLocationAlone(t *testing.T) {
	// LATAM matches on location alone, no keyword required
	contact := &models.Contact{
		Location: "Bogotá, Colombia",
		Headline: "Accountant",
	}
	tags := SegmentContact(contact, nil)
	assert.Equal(t, []string{models.SegmentLATAM}, tags)
}

func TestSegmentContactMultipleTags(t *testing.T) {
	contact := &models.Contact{
		Location: "Mexico City, Mexico",
		Headline: "Founder building AI tools for small businesses",
		Company:  "Anthropic",
	}
	tags := SegmentContact(contact, []string{"anthropic"})
	assert.Equal(t, []string{models.SegmentLATAM, models.SegmentJobTarget}, tags)
}

func TestSegmentContactNoMatch(t *testing.T) {
	contact := &models.Contact{
		Location: "London, United Kingdom",
		Headline: "Barrister",
	}
	assert.Empty(t, SegmentContact(contact, []string{"stripe"}))
}

func TestMatchesTargetCompany(t *testing.T) {
	targets := []string{"stripe", "google cloud"}

	assert.True(t, MatchesTargetCompany("Stripe", targets))
	assert.True(t, MatchesTargetCompany("Stripe, Inc.", targets), "contact company contains target")
	assert.True(t, MatchesTargetCompany("Google", targets), "target contains contact company")
	assert.False(t, MatchesTargetCompany("Shopify", targets))
	assert.False(t, MatchesTargetCompany("", targets))
	assert.False(t, MatchesTargetCompany("Stripe", nil))
}

func TestSegmentContactDeterministic(t *testing.T) {
	contact := &models.Contact{
		Location: "Vancouver, British Columbia",
		Headline: "AI researcher working on natural language processing",
	}
	first := SegmentContact(contact, nil)
	second := SegmentContact(contact, nil)
	assert.Equal(t, first, second)
}

func TestSegmentAllPersistsTags(t *testing.T) {
	db := newTestDB(t)
	segmenter := NewSegmenter(db, testLogger())

	require.NoError(t, db.Create(&models.TargetCompany{Name: "Anthropic"}).Error)

	latam := models.Contact{
		LinkedInURL: "https://www.linkedin.com/in/latam",
		Name:        "Lucía Fernández",
		Location:    "Buenos Aires, Argentina",
	}
	targeted := models.Contact{
		LinkedInURL: "https://www.linkedin.com/in/targeted",
		Name:        "Sam Ortiz",
		Location:    "Austin, Texas",
		Company:     "Anthropic",
	}
	untagged := models.Contact{
		LinkedInURL: "https://www.linkedin.com/in/untagged",
		Name:        "Pat Doyle",
		Location:    "Dublin, Ireland",
	}
	for _, c := range []*models.Contact{&latam, &targeted, &untagged} {
		require.NoError(t, db.Create(c).Error)
	}

	result, err := segmenter.SegmentAll()
	require.NoError(t, err)
	assert.Equal(t, 3, result.ContactsProcessed)
	assert.Equal(t, 1, result.BySegment[models.SegmentLATAM])
	assert.Equal(t, 1, result.BySegment[models.SegmentJobTarget])
	assert.Equal(t, 1, result.NoSegment)

	var stored models.Contact
	require.NoError(t, db.First(&stored, targeted.ID).Error)
	assert.True(t, stored.HasTag(models.SegmentJobTarget))

	// Re-running produces the same tag set
	again, err := segmenter.SegmentAll()
	require.NoError(t, err)
	assert.Equal(t, result.BySegment, again.BySegment)
}
