package gateway

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// casAttempts bounds each worker's retry loop.
const casAttempts = 1000

type widgetModel struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"column:name;uniqueIndex" json:"name"`
	City      string    `gorm:"column:city" json:"city"`
	Qty       int       `gorm:"column:qty" json:"qty"`
	Active    bool      `gorm:"column:active" json:"active"`
	Note      *string   `gorm:"column:note" json:"note"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (widgetModel) TableName() string { return "widgets" }

func widgetSchema() Schema {
	return NewSchema(Table{
		Name:   "widgets",
		Unique: [][]string{{"name"}},
		Model:  func() any { return &widgetModel{} },
	})
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func seedWidgets(t *testing.T, gw Gateway) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	note := "fragile"
	rows := []widgetModel{
		{ID: "w-a", Name: "alpha", City: "Almaty", Qty: 5, Active: true, CreatedAt: base},
		{ID: "w-b", Name: "bravo", City: "almaty-north", Qty: 10, Active: false, Note: &note, CreatedAt: base.Add(time.Minute)},
		{ID: "w-c", Name: "charlie", City: "Astana", Qty: 1, Active: true, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, w := range rows {
		row, err := rowFrom(&w)
		require.NoError(t, err)
		_, err = gw.Insert(ctx, "widgets", row)
		require.NoError(t, err)
	}
}

// runContract checks behaviour every backend must share.
func runContract(t *testing.T, newGateway func(t *testing.T) Gateway) {
	ctx := context.Background()

	t.Run("select filters", func(t *testing.T) {
		gw := newGateway(t)
		seedWidgets(t, gw)

		tests := []struct {
			name string
			q    Query
			want []string
		}{
			{"eq bool", Where(Eq("active", true)), []string{"w-a", "w-c"}},
			{"neq", Where(Neq("name", "alpha")), []string{"w-b", "w-c"}},
			{"ilike is case-insensitive substring", Where(ILike("city", "ALMATY")), []string{"w-a", "w-b"}},
			{"in", Where(In("name", []string{"alpha", "charlie", "zulu"})), []string{"w-a", "w-c"}},
			{"in empty", Where(In("name", []string{})), []string{}},
			{"range", Where(Gte("qty", 5), Lt("qty", 10)), []string{"w-a"}},
			{"is null", Where(IsNull("note")), []string{"w-a", "w-c"}},
			{"time comparison", Where(Gt("created_at", time.Date(2025, 1, 1, 9, 0, 30, 0, time.UTC))), []string{"w-b", "w-c"}},
			{"conjunction", Where(Eq("active", true), ILike("city", "ast")), []string{"w-c"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rows, err := gw.Select(ctx, "widgets", tt.q)
				require.NoError(t, err)
				if diff := cmp.Diff(tt.want, ids(rows), sortStrings, cmpopts.EquateEmpty()); diff != "" {
					t.Errorf("ids mismatch (-want +got):\n%s", diff)
				}
			})
		}
	})

	t.Run("order and limit", func(t *testing.T) {
		gw := newGateway(t)
		seedWidgets(t, gw)

		rows, err := gw.Select(ctx, "widgets", Query{}.OrderBy("qty", true))
		require.NoError(t, err)
		assert.Equal(t, []string{"w-b", "w-a", "w-c"}, ids(rows))

		rows, err = gw.Select(ctx, "widgets", Query{}.OrderBy("created_at", false).WithLimit(2))
		require.NoError(t, err)
		assert.Equal(t, []string{"w-a", "w-b"}, ids(rows))
	})

	t.Run("unique keys", func(t *testing.T) {
		gw := newGateway(t)
		seedWidgets(t, gw)

		_, err := gw.Insert(ctx, "widgets", Row{"id": "w-d", "name": "alpha", "created_at": time.Now().UTC()})
		assert.ErrorIs(t, err, ErrConflict)

		_, err = gw.Insert(ctx, "widgets", Row{"id": "w-a", "name": "delta", "created_at": time.Now().UTC()})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("update", func(t *testing.T) {
		gw := newGateway(t)
		seedWidgets(t, gw)

		row, err := gw.Update(ctx, "widgets", "w-b", Row{"qty": 11, "active": true})
		require.NoError(t, err)
		var got widgetModel
		require.NoError(t, rowInto(row, &got))
		assert.Equal(t, 11, got.Qty)
		assert.True(t, got.Active)
		assert.Equal(t, "bravo", got.Name)

		_, err = gw.Update(ctx, "widgets", "missing", Row{"qty": 1})
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = gw.Update(ctx, "widgets", "w-b", Row{"id": "other"})
		assert.ErrorIs(t, err, ErrBadQuery)
	})

	t.Run("update where is a compare-and-set", func(t *testing.T) {
		gw := newGateway(t)
		seedWidgets(t, gw)

		n, err := gw.UpdateWhere(ctx, "widgets", Where(Eq("id", "w-a"), Eq("qty", 5)), Row{"qty": 6})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = gw.UpdateWhere(ctx, "widgets", Where(Eq("id", "w-a"), Eq("qty", 5)), Row{"qty": 7})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		rows, err := gw.Select(ctx, "widgets", Where(Eq("id", "w-a")))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		var got widgetModel
		require.NoError(t, rowInto(rows[0], &got))
		assert.Equal(t, 6, got.Qty)
	})

	t.Run("delete", func(t *testing.T) {
		gw := newGateway(t)
		seedWidgets(t, gw)

		require.NoError(t, gw.Delete(ctx, "widgets", "w-c"))
		assert.ErrorIs(t, gw.Delete(ctx, "widgets", "w-c"), ErrNotFound)

		rows, err := gw.Select(ctx, "widgets", Query{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"w-a", "w-b"}, ids(rows))
	})

	t.Run("rejects unknown tables and columns", func(t *testing.T) {
		gw := newGateway(t)

		_, err := gw.Select(ctx, "gadgets", Query{})
		assert.ErrorIs(t, err, ErrUnknownTable)

		_, err = gw.Select(ctx, "widgets", Where(Eq("name; drop table widgets", "x")))
		assert.ErrorIs(t, err, ErrBadQuery)
	})

	t.Run("ilike treats pattern characters literally", func(t *testing.T) {
		gw := newGateway(t)
		for i, city := range []string{"a_b", "axb", "100%", "1000", "st*r", "star"} {
			row, err := rowFrom(&widgetModel{ID: fmt.Sprintf("w-%d", i), Name: city, City: city})
			require.NoError(t, err)
			_, err = gw.Insert(ctx, "widgets", row)
			require.NoError(t, err)
		}

		tests := []struct {
			substr string
			want   []string
		}{
			{"a_b", []string{"w-0"}},
			{"0%", []string{"w-2"}},
			{"T*R", []string{"w-4"}},
			{"st", []string{"w-4", "w-5"}},
		}
		for _, tt := range tests {
			rows, err := gw.Select(ctx, "widgets", Where(ILike("city", tt.substr)))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, ids(rows), sortStrings, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("ilike %q (-want +got):\n%s", tt.substr, diff)
			}
		}

		rows, err := gw.Select(ctx, "widgets", Where(ILike("city", "*")).WithLimit(1))
		require.NoError(t, err)
		assert.Equal(t, []string{"w-4"}, ids(rows))
	})

	t.Run("concurrent compare-and-set loses no increments", func(t *testing.T) {
		gw := newGateway(t)
		seedWidgets(t, gw)

		const workers = 16
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for attempt := 0; attempt < casAttempts; attempt++ {
					rows, err := gw.Select(ctx, "widgets", Where(Eq("id", "w-c")))
					if err != nil || len(rows) != 1 {
						t.Errorf("select: %v", err)
						return
					}
					var w widgetModel
					if err := rowInto(rows[0], &w); err != nil {
						t.Errorf("decode: %v", err)
						return
					}
					n, err := gw.UpdateWhere(ctx, "widgets",
						Where(Eq("id", "w-c"), Eq("qty", w.Qty)), Row{"qty": w.Qty + 1})
					if err != nil {
						t.Errorf("update: %v", err)
						return
					}
					if n == 1 {
						return
					}
				}
				t.Errorf("no successful compare-and-set after %d attempts", casAttempts)
			}()
		}
		wg.Wait()

		rows, err := gw.Select(ctx, "widgets", Where(Eq("id", "w-c")))
		require.NoError(t, err)
		var w widgetModel
		require.NoError(t, rowInto(rows[0], &w))
		assert.Equal(t, 1+workers, w.Qty)
	})
}

func TestMemoryGateway(t *testing.T) {
	runContract(t, func(t *testing.T) Gateway {
		return NewMemory(widgetSchema())
	})
}

func TestMemoryGateway_ReturnsCopies(t *testing.T) {
	gw := NewMemory(widgetSchema())
	ctx := context.Background()

	row, err := gw.Insert(ctx, "widgets", Row{"id": "w-1", "name": "one", "qty": 1})
	require.NoError(t, err)
	row["qty"] = 99

	rows, err := gw.Select(ctx, "widgets", Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(1), rows[0]["qty"])
}

func TestMemoryGateway_InsertRequiresID(t *testing.T) {
	gw := NewMemory(widgetSchema())
	_, err := gw.Insert(context.Background(), "widgets", Row{"name": "anon"})
	assert.ErrorIs(t, err, ErrBadQuery)
}
