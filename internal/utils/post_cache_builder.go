package utils

import "strconv"

func BuildPostsListCacheKey(limit int, cursor string) string {
	return "posts:list:v1:limit=" + strconv.Itoa(limit) +
		":cursor=" + cursor
}
