package network_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/matzehuels/fetchflow/pkg/errors"
	"github.com/matzehuels/fetchflow/pkg/network"
)

func ExampleExecute() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"name":"widget","price":3}`)
	}))
	defer server.Close()

	type product struct {
		Name  string `json:"name"`
		Price int    `json:"price"`
	}
	c := network.NewClient(network.WithHTTP(server.Client()))
	p, err := network.Execute[product](context.Background(), c, network.JoinURL(server.URL, "/products/1"), network.RequestOptions{})
	fmt.Println(p.Name, p.Price, err)
	// Output: widget 3 <nil>
}

func ExampleClient_Do_httpError() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"no such product"}`)
	}))
	defer server.Close()

	c := network.NewClient(network.WithHTTP(server.Client()))
	_, err := c.Do(context.Background(), server.URL, network.RequestOptions{})
	fe := errors.As(err)
	fmt.Println(fe.Kind, fe.StatusCode, fe.Message)
	// Output: HttpError 404 no such product
}
