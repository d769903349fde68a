package board

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"jobboard-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJobs() []models.JobListing {
	return []models.JobListing{
		{ID: "1", Title: "Senior Frontend Engineer", Company: "TechCorp Inc.", Department: models.DepartmentEngineering, LocationType: models.LocationHybrid,
			Description: "Build web applications using React and TypeScript."},
		{ID: "2", Title: "Product Designer", Company: "DesignHub", Department: models.DepartmentDesign, LocationType: models.LocationRemote,
			Description: "Create user-centric designs for our SaaS products."},
		{ID: "3", Title: "DevOps Engineer", Company: "CloudScale", Department: models.DepartmentEngineering, LocationType: models.LocationRemote,
			Description: "Own our Kubernetes platform."},
		{ID: "4", Title: "Data Scientist", Company: "Reactive Analytics", Department: models.DepartmentDataScience, LocationType: models.LocationOnSite,
			Description: "Model churn and growth."},
		{ID: "5", Title: "Security Analyst", Company: "SecureNet", Department: models.DepartmentSecurity, LocationType: models.LocationOnSite,
			Description: "Threat hunting with a REACT-ive mindset."},
	}
}

func ids(jobs []models.JobListing) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.ID)
	}
	return out
}

func TestFilter_DefaultCriteriaIsIdentity(t *testing.T) {
	jobs := sampleJobs()
	assert.Equal(t, jobs, Filter(jobs, DefaultCriteria()))
}

func TestFilter_CaseInsensitiveSearch(t *testing.T) {
	jobs := []models.JobListing{{ID: "1", Title: "Senior React Developer", Company: "Acme", Department: models.DepartmentEngineering, LocationType: models.LocationRemote}}

	got := Filter(jobs, NewCriteria("react", "", ""))
	assert.Equal(t, []string{"1"}, ids(got))
}

func TestFilter_SearchCoversTitleCompanyDescription(t *testing.T) {
	got := Filter(sampleJobs(), NewCriteria("react", "", ""))
	// title of none, description of 1, company of 4, description of 5
	assert.Equal(t, []string{"1", "4", "5"}, ids(got))

	for _, j := range got {
		hay := strings.ToLower(j.Title + "|" + j.Company + "|" + j.Description)
		assert.Contains(t, hay, "react")
	}
}

func TestFilter_Selectors(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"department", NewCriteria("", "Engineering", ""), []string{"1", "3"}},
		{"location_type", NewCriteria("", "", "Remote"), []string{"2", "3"}},
		{"department_and_location", NewCriteria("", "Engineering", "Remote"), []string{"3"}},
		{"all_three", NewCriteria("kubernetes", "Engineering", "Remote"), []string{"3"}},
		{"department_is_exact", NewCriteria("", "engineering", ""), []string{}},
		{"unknown_location_type", NewCriteria("", "", "Mars"), []string{}},
		{"sentinels_by_name", NewCriteria("", AllDepartments, AllLocationTypes), []string{"1", "2", "3", "4", "5"}},
		{"all_keyword", NewCriteria("", "ALL", "all"), []string{"1", "2", "3", "4", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sampleJobs(), tt.criteria)))
		})
	}
}

func TestFilter_PreservesOrderAndHandlesEmpty(t *testing.T) {
	jobs := sampleJobs()
	jobs[0], jobs[4] = jobs[4], jobs[0]

	got := Filter(jobs, NewCriteria("", "", "On-site"))
	assert.Equal(t, []string{"5", "4"}, ids(got))

	empty := Filter(nil, DefaultCriteria())
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func makeItems(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i + 1
	}
	return items
}

func TestPaginate_SecondPageOfTen(t *testing.T) {
	page, err := Paginate(makeItems(10), 6, 2)
	require.NoError(t, err)

	assert.Equal(t, []int{7, 8, 9, 10}, page.Items)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 10, page.Total)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)
}

func TestPaginate_SumOfPagesEqualsLength(t *testing.T) {
	for n := 0; n <= 25; n++ {
		for size := 1; size <= 7; size++ {
			t.Run(fmt.Sprintf("n%d_size%d", n, size), func(t *testing.T) {
				items := makeItems(n)
				first, err := Paginate(items, size, 1)
				require.NoError(t, err)

				sum := 0
				for p := 1; p <= first.TotalPages; p++ {
					page, err := Paginate(items, size, p)
					require.NoError(t, err)
					sum += len(page.Items)
				}
				assert.Equal(t, n, sum)
			})
		}
	}
}

func TestPaginate_EdgeCases(t *testing.T) {
	t.Run("empty_items", func(t *testing.T) {
		page, err := Paginate([]int{}, 6, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, page.TotalPages)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
	})

	t.Run("page_beyond_range", func(t *testing.T) {
		page, err := Paginate(makeItems(10), 6, 3)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("page_zero", func(t *testing.T) {
		page, err := Paginate(makeItems(10), 6, 0)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("invalid_page_size", func(t *testing.T) {
		_, err := Paginate(makeItems(10), 0, 1)
		assert.ErrorIs(t, err, ErrInvalidPageSize)
	})

	t.Run("result_does_not_alias_input", func(t *testing.T) {
		items := makeItems(3)
		page, err := Paginate(items, 2, 1)
		require.NoError(t, err)
		page.Items[0] = 99
		assert.Equal(t, 1, items[0])
	})
}

func TestVisiblePages(t *testing.T) {
	t.Run("single_page_has_no_navigation", func(t *testing.T) {
		assert.Empty(t, VisiblePages(1, 1))
		assert.Empty(t, VisiblePages(1, 0))
	})

	t.Run("middle_of_long_list", func(t *testing.T) {
		got := VisiblePages(5, 10)
		want := []PageLink{
			{Number: 1},
			{Ellipsis: true},
			{Number: 4},
			{Number: 5, Current: true},
			{Number: 6},
			{Ellipsis: true},
			{Number: 10},
		}
		assert.Equal(t, want, got)
	})

	t.Run("first_page", func(t *testing.T) {
		got := VisiblePages(1, 5)
		want := []PageLink{
			{Number: 1, Current: true},
			{Number: 2},
			{Ellipsis: true},
			{Number: 5},
		}
		assert.Equal(t, want, got)
	})
}

func TestView_CriteriaChangeResetsPage(t *testing.T) {
	v := NewView()
	assert.Equal(t, 1, v.Page())

	v.SetPage(3)
	assert.Equal(t, 3, v.Page())

	changed := v.SetCriteria(NewCriteria("react", "", ""))
	assert.True(t, changed)
	assert.Equal(t, 1, v.Page())

	v.SetPage(2)
	assert.False(t, v.SetCriteria(NewCriteria("react", "", "")))
	assert.Equal(t, 2, v.Page())
}

func TestView_Apply(t *testing.T) {
	v := NewView()

	c, page := v.Apply(DefaultCriteria(), 2)
	assert.Equal(t, DefaultCriteria(), c)
	assert.Equal(t, 2, page)

	// New criteria win over the requested page.
	_, page = v.Apply(NewCriteria("", "Design", ""), 4)
	assert.Equal(t, 1, page)

	// No page requested keeps the current one.
	v.SetPage(2)
	_, page = v.Apply(NewCriteria("", "Design", ""), 0)
	assert.Equal(t, 2, page)
}

func TestView_Turn(t *testing.T) {
	v := NewView()
	v.Apply(NewCriteria("", "Engineering", ""), 0)

	c, page := v.Turn(2)
	assert.Equal(t, NewCriteria("", "Engineering", ""), c)
	assert.Equal(t, 2, page)

	c, page = v.Turn(0)
	assert.Equal(t, "Engineering", c.Department)
	assert.Equal(t, 2, page)

	result, err := Paginate(Filter(sampleJobs(), c), 1, page)
	require.NoError(t, err)
	assert.Equal(t, 2, result.PageNumber)
}

// Concurrent list requests of one session each get back a pair that was
// valid at one instant: their own criteria with page 1 or the page they
// asked for.
func TestView_ApplyReturnsConsistentPairs(t *testing.T) {
	v := NewView()
	design := NewCriteria("", "Design", "")
	remote := NewCriteria("", "", "Remote")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c, page := v.Apply(design, 2)
			assert.Equal(t, design, c)
			assert.Contains(t, []int{1, 2}, page)
		}()
		go func() {
			defer wg.Done()
			c, page := v.Apply(remote, 3)
			assert.Equal(t, remote, c)
			assert.Contains(t, []int{1, 3}, page)
		}()
	}
	wg.Wait()
}
