package store

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Key layout. Index keys carry an empty value; the record ID is the last
// segment of the key.
//
//	post:{id}                                   Post JSON
//	post:idx:geo:{geohash}:{id}                 proximity range scans
//	post:idx:time:{invts}:{id}                  global feed, newest first
//	post:idx:author:{author}:{invts}:{id}       profile feed, newest first
//	like:{postID}_{userID}                      Like JSON
//	like:idx:user:{userID}:{postID}
//	clike:{commentID}_{userID}                  CommentLike JSON
//	clike:idx:user:{userID}:{commentID}
//	folder:{id}                                 Folder JSON
//	folder:idx:owner:{userID}:{ts}:{id}
//	saved:{postID}_{userID}_{folderID}          SavedItem JSON
//	saved:idx:user:{userID}:{postID}:{folderID}
//	saved:idx:folder:{folderID}:{savedID}
//	comment:{id}                                Comment JSON
//	comment:idx:post:{postID}:{ts}:{id}         oldest first
//	alert:{id}                                  Alert JSON
//	alert:idx:recipient:{userID}:{invts}:{id}   newest first
const (
	postPrefix          = "post:"
	postIdxGeoPrefix    = "post:idx:geo:"
	postIdxTimePrefix   = "post:idx:time:"
	postIdxAuthorPrefix = "post:idx:author:"

	likePrefix        = "like:"
	likeIdxUserPrefix = "like:idx:user:"

	commentLikePrefix        = "clike:"
	commentLikeIdxUserPrefix = "clike:idx:user:"

	folderPrefix         = "folder:"
	folderIdxOwnerPrefix = "folder:idx:owner:"

	savedPrefix          = "saved:"
	savedIdxUserPrefix   = "saved:idx:user:"
	savedIdxFolderPrefix = "saved:idx:folder:"

	commentPrefix        = "comment:"
	commentIdxPostPrefix = "comment:idx:post:"

	alertPrefix             = "alert:"
	alertIdxRecipientPrefix = "alert:idx:recipient:"
)

// invertedTimestamp returns a string that sorts in descending time order.
func invertedTimestamp(t time.Time) string {
	return fmt.Sprintf("%019d", math.MaxInt64-t.UnixNano())
}

// sortableTimestamp returns a string that sorts in ascending time order.
func sortableTimestamp(t time.Time) string {
	return fmt.Sprintf("%019d", t.UnixNano())
}

// lastSegment returns the part of key after its final ':'.
func lastSegment(key []byte) string {
	s := string(key)
	return s[strings.LastIndexByte(s, ':')+1:]
}

func postKey(id string) []byte { return []byte(postPrefix + id) }

func postGeoKey(geohash, id string) []byte {
	return []byte(postIdxGeoPrefix + geohash + ":" + id)
}

func postTimeKey(t time.Time, id string) []byte {
	return []byte(postIdxTimePrefix + invertedTimestamp(t) + ":" + id)
}

func postAuthorPrefix(authorID string) string {
	return postIdxAuthorPrefix + authorID + ":"
}

func postAuthorKey(authorID string, t time.Time, id string) []byte {
	return []byte(postAuthorPrefix(authorID) + invertedTimestamp(t) + ":" + id)
}

func likeKey(likeID string) []byte { return []byte(likePrefix + likeID) }

func likeUserPrefix(userID string) string { return likeIdxUserPrefix + userID + ":" }

func likeUserKey(userID, postID string) []byte {
	return []byte(likeUserPrefix(userID) + postID)
}

func commentLikeKey(likeID string) []byte { return []byte(commentLikePrefix + likeID) }

func commentLikeUserPrefix(userID string) string {
	return commentLikeIdxUserPrefix + userID + ":"
}

func commentLikeUserKey(userID, commentID string) []byte {
	return []byte(commentLikeUserPrefix(userID) + commentID)
}

func folderKey(id string) []byte { return []byte(folderPrefix + id) }

func folderOwnerPrefix(userID string) string { return folderIdxOwnerPrefix + userID + ":" }

func folderOwnerKey(userID string, t time.Time, id string) []byte {
	return []byte(folderOwnerPrefix(userID) + sortableTimestamp(t) + ":" + id)
}

func savedKey(savedID string) []byte { return []byte(savedPrefix + savedID) }

func savedUserPrefix(userID string) string { return savedIdxUserPrefix + userID + ":" }

func savedUserPostPrefix(userID, postID string) string {
	return savedUserPrefix(userID) + postID + ":"
}

func savedUserKey(userID, postID, folderID string) []byte {
	return []byte(savedUserPostPrefix(userID, postID) + folderID)
}

func savedFolderPrefix(folderID string) string { return savedIdxFolderPrefix + folderID + ":" }

func savedFolderKey(folderID, savedID string) []byte {
	return []byte(savedFolderPrefix(folderID) + savedID)
}

func commentKey(id string) []byte { return []byte(commentPrefix + id) }

func commentPostPrefix(postID string) string { return commentIdxPostPrefix + postID + ":" }

func commentPostKey(postID string, t time.Time, id string) []byte {
	return []byte(commentPostPrefix(postID) + sortableTimestamp(t) + ":" + id)
}

func alertKey(id string) []byte { return []byte(alertPrefix + id) }

func alertRecipientPrefix(userID string) string { return alertIdxRecipientPrefix + userID + ":" }

func alertRecipientKey(userID string, t time.Time, id string) []byte {
	return []byte(alertRecipientPrefix(userID) + invertedTimestamp(t) + ":" + id)
}
