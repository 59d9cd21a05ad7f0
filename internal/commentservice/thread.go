package commentservice

// BuildThread partitions a flat, creation-ordered comment list into
// top-level comments each carrying its ordered direct replies. Input order
// is preserved within both tiers.
func BuildThread(comments []Comment) []Thread {
	threads := make([]Thread, 0, len(comments))
	index := make(map[int]int, len(comments))

	for _, c := range comments {
		if c.ParentID == nil {
			index[c.ID] = len(threads)
			threads = append(threads, Thread{Comment: c, Replies: []Comment{}})
		}
	}

	for _, c := range comments {
		if c.ParentID == nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}

	return threads
}
