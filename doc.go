// Package golinear is a large-scale linear classification and regression
// library for Go: L2/L1-regularized logistic regression, linear SVMs with
// hinge and squared-hinge loss, Crammer-Singer multi-class SVM, support
// vector regression and one-class SVM, all trained on sparse data.
//
// # Installation
//
//	go get github.com/YuminosukeSato/golinear
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/golinear/linear"
//	    "github.com/YuminosukeSato/golinear/sparse"
//	)
//
//	func main() {
//	    // 4 行 2 列の dense データ、bias 1 を付けて sparse に変換
//	    data := []float64{1, 1, 2, 2, -1, -1, -2, -2}
//	    prob, err := sparse.NewProblem(data, []float64{1, 1, -1, -1}, 4, 2, 1)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer prob.Release()
//
//	    param, err := linear.NewParameter(linear.WithSolver(linear.L2RLR), linear.WithC(1))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    m, err := linear.Train(context.Background(), prob, param)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer m.Release()
//
//	    x, _ := m.DenseVector([]float64{1.5, 1})
//	    label, _ := m.Predict(x)
//	    fmt.Println("label:", label)
//	}
//
// # Packages
//
//   - sparse: sparse feature vectors, training problems, LIBSVM text format
//   - linear: parameters, solvers, models, prediction, cross validation, parameter search
//   - capi: flat prepare/init/train/predict/free surface over plain slices
//   - sklearn/linear_model: LogisticRegression, LinearSVC, LinearSVR, OneClassSVM on gonum matrices
//   - preprocessing: StandardScaler, MinMaxScaler
//   - metrics: accuracy, AUC, MSE, R² and friends
//   - core/model: estimator interfaces, fitted state, portable weights
//   - core/parallel: row-chunked worker fan-out
//   - pkg/errors, pkg/log: structured errors, warnings and zerolog-backed logging
//
// # License
//
// golinear is released under the MIT License.
package golinear
