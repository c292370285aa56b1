package query

import (
	"io/ioutil"
	"path"
)

// KeywordQuerySource is a directory of files that each contain one query; the file name is the
// query id.
type KeywordQuerySource struct{}

// Load takes a directory of queries and parses them "as is".
func (KeywordQuerySource) Load(directory string) ([]Query, error) {
	files, err := ioutil.ReadDir(directory)
	if err != nil {
		return nil, err
	}

	var queries []Query
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		source, err := ioutil.ReadFile(path.Join(directory, f.Name()))
		if err != nil {
			return nil, err
		}
		queries = append(queries, New(f.Name(), string(source)))
	}
	return queries, nil
}
