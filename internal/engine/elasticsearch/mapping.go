package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for movie documents.
const DefaultIndexName = "movies"

// buildIndexMapping returns the full JSON body for index creation: the
// autocomplete analyzer (standard tokenizer, lowercase, edge n-grams of
// 2..20 characters) and the field mappings.
//
// The title field is indexed with the autocomplete analyzer but searched
// with the standard analyzer, so a stored "Inception" matches queries for
// "inc" without the query itself being n-grammed. The keyword sub-field
// supports exact matches and sorting.
func buildIndexMapping() string {
	return `{
  "settings": {
    "analysis": {
      "analyzer": {
        "autocomplete": {
          "tokenizer": "standard",
          "filter": ["lowercase", "edge_ngram_filter"]
        }
      },
      "filter": {
        "edge_ngram_filter": {
          "type": "edge_ngram",
          "min_gram": 2,
          "max_gram": 20
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "title":         { "type": "text", "analyzer": "autocomplete", "search_analyzer": "standard", "fields": { "keyword": { "type": "keyword" } } },
      "title_suggest": { "type": "completion" },
      "description":   { "type": "text" },
      "genre":         { "type": "keyword" },
      "year":          { "type": "integer" },
      "cast":          { "type": "keyword" }
    }
  }
}`
}
