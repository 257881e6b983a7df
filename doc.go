// Package robustfit is your in-memory toolkit for estimating geometric
// models — cameras, rigid motions, homographies, conics — from noisy,
// outlier-contaminated point correspondences.
//
// 🚀 What is robustfit?
//
//	A modern Go library that brings together the classic sample-consensus
//	family under one generic engine:
//		• Minimal solvers: DLT for the pinhole camera & 2D homography,
//		  Kabsch/Umeyama for rigid 3D motion, null-vector fit for conics
//		• Consensus engines: RANSAC, MSAC, LMedS, PROSAC, PROMedS — one
//		  generic loop, interchangeable samplers & selection criteria
//		• Refinement: Levenberg–Marquardt over the inlier set, with soft
//		  "suggestion" priors and an optional parameter covariance
//		• Reproducibility: every random decision flows from an injected seed
//
// ✨ Why choose robustfit?
//
//   - Strict sentinels – callers branch on error kind, never on strings
//   - Deterministic – same seed, same samples, same model
//   - Generic – one Estimator[M] for every model type, no inheritance trees
//   - Solid numerics – SVD/QR via gonum, normalized DLT by default
//
// The library is organized under seven subpackages:
//
//	camera/    — pinhole camera model: projection, RQ decomposition, quaternions
//	conic/     — conic section model & Sampson distance
//	consensus/ — the generic sample-consensus estimator and its state machine
//	dlt/       — minimal closed-form solvers + consensus problem adapters
//	euclid/    — rigid 3D transform model
//	refine/    — LM refinement, suggestion blending, covariance
//	sample/    — uniform & progressive (PROSAC) minimal-subset samplers
//
// Quick sketch:
//
//	prob, _ := dlt.NewCameraProblem(world, image)
//	est, _ := consensus.New[camera.Camera](prob, consensus.DefaultOptions())
//	res, err := est.Estimate()
//
// Dive into the per-package doc.go files for contracts, complexity notes and
// runnable examples.
//
//	go get github.com/katalvlaran/robustfit
package robustfit
