package services

import (
	"karmafeed/internal/models"
	"sort"
)

// CommentNode 是评论树中的一个节点
type CommentNode struct {
	Comment         models.Comment
	Replies         []*CommentNode
	DescendantCount int // 包含自身
}

// CommentForest 是一个帖子下全部评论组成的森林
type CommentForest struct {
	Roots []*CommentNode
	Total int
}

// BuildCommentForest 把同一帖子下的扁平评论组装成树。
// 第一遍按 ID 建索引，第二遍挂到父节点下；同级按创建时间升序、ID 升序排列。
// 父评论缺失、ID 重复或存在环时返回 OrphanCommentError，不会把评论提升为根节点。
func BuildCommentForest(comments []models.Comment) (*CommentForest, error) {
	nodes := make(map[uint]*CommentNode, len(comments))
	for _, c := range comments {
		if _, dup := nodes[c.ID]; dup {
			return nil, models.NewOrphanCommentError(c.ID, "duplicate id")
		}
		nodes[c.ID] = &CommentNode{Comment: c}
	}

	forest := &CommentForest{}
	for _, c := range comments {
		node := nodes[c.ID]
		if c.ParentID == nil {
			forest.Roots = append(forest.Roots, node)
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok {
			return nil, models.NewOrphanCommentError(c.ID, *c.ParentID)
		}
		parent.Replies = append(parent.Replies, node)
	}

	sortNodes(forest.Roots)
	for _, root := range forest.Roots {
		forest.Total += countDescendants(root)
	}

	// 从根节点无法到达的评论一定处在父子环上
	if forest.Total != len(comments) {
		for _, c := range comments {
			if nodes[c.ID].DescendantCount == 0 {
				return nil, models.NewOrphanCommentError(c.ID, *c.ParentID)
			}
		}
	}
	return forest, nil
}

// Flatten 按深度优先顺序展开森林
func (f *CommentForest) Flatten() []models.Comment {
	out := make([]models.Comment, 0, f.Total)
	var walk func(nodes []*CommentNode)
	walk = func(nodes []*CommentNode) {
		for _, n := range nodes {
			out = append(out, n.Comment)
			walk(n.Replies)
		}
	}
	walk(f.Roots)
	return out
}

func countDescendants(node *CommentNode) int {
	sortNodes(node.Replies)
	node.DescendantCount = 1
	for _, child := range node.Replies {
		node.DescendantCount += countDescendants(child)
	}
	return node.DescendantCount
}

func sortNodes(nodes []*CommentNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Comment, nodes[j].Comment
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
