// Package entsearch embeds the entsearch entity search service in a Go
// program: the same eligibility guard, Elasticsearch query compiler and
// authoritative SQLite fallback the HTTP server uses.
//
//	client, _ := entsearch.New(ctx,
//	    entsearch.WithSQLite("file:shop.db"),
//	    entsearch.WithElasticsearch("http://localhost:9200"),
//	    entsearch.WithEntity("product",
//	        entsearch.TextField("name", 10),
//	        entsearch.KeywordField("color"),
//	        entsearch.NumericField("price"),
//	    ),
//	)
//	res, _ := client.Search("product").
//	    Where(entsearch.Eq("product.color", "red")).
//	    Term("shirt").
//	    SortBy("product.price", true).
//	    Limit(20).
//	    Do(ctx)
package entsearch
