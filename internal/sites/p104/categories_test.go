package p104

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobradar/crawler/internal/crawler"
)

func TestFlattenCategories(t *testing.T) {
	t.Parallel()

	nodes := []categoryNode{
		{
			No:  "2007000000",
			Des: "資訊軟體系統類",
			Children: []categoryNode{
				{No: "2007001000", Des: "軟體工程類人員"},
				{No: "2007002000", Des: "系統規劃類人員"},
			},
		},
		{No: "", Des: "孤兒節點"},
	}

	var flat []crawler.Category
	flattenCategories(nodes, nil, &flat)

	require.Len(t, flat, 3)
	require.Nil(t, flat[0].ParentSourceID)
	require.Equal(t, "資訊軟體系統類", flat[0].Name)
	require.Equal(t, "2007000000", *flat[1].ParentSourceID)
	require.Equal(t, "軟體工程類人員", flat[1].Name)
	require.Equal(t, "2007000000", *flat[2].ParentSourceID)
}
